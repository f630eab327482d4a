package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"storefront/internal/slot"
)

// scheduleJobs registers housekeeping on a cron scheduler. The caller starts
// and stops it.
func (app *application) scheduleJobs(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()

	sweepEvery := app.config.sessionIdle / 2
	if sweepEvery < time.Minute {
		sweepEvery = time.Minute
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", sweepEvery), func() {
		app.carts.Sweep(app.config.sessionIdle)
	}); err != nil {
		return nil, fmt.Errorf("schedule cart sweep: %w", err)
	}

	if purger, ok := app.store.Slots.(slot.Purger); ok {
		if _, err := c.AddFunc("@hourly", func() {
			app.purgeExpiredCarts(ctx, purger)
		}); err != nil {
			return nil, fmt.Errorf("schedule slot purge: %w", err)
		}
	}

	return c, nil
}

func (app *application) purgeExpiredCarts(ctx context.Context, purger slot.Purger) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := purger.Purge(ctx)
	if err != nil {
		app.logger.Errorw("purging expired carts", "error", err)
		return
	}
	app.logger.Infow("purged expired carts", "count", n, "at", time.Now().Format(time.RFC1123))
}
