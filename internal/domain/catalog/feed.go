package catalog

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Feed keeps the latest complete catalog snapshot. It polls the Store on an
// interval and swaps the snapshot atomically, so readers always see either the
// old or the new catalog, never a mix.
type Feed struct {
	store    Store
	interval time.Duration
	logger   *zap.SugaredLogger
	now      func() time.Time

	current atomic.Pointer[Snapshot]
}

func NewFeed(store Store, interval time.Duration, logger *zap.SugaredLogger) *Feed {
	f := &Feed{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
	f.current.Store(NewSnapshot(nil, nil, time.Time{}))
	return f
}

// Snapshot returns the latest catalog. Never nil.
func (f *Feed) Snapshot() *Snapshot {
	return f.current.Load()
}

// Refresh fetches a new snapshot. On error the previous snapshot stays live.
func (f *Feed) Refresh(ctx context.Context) error {
	products, err := f.store.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	categories, err := f.store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("refresh categories: %w", err)
	}

	snap := NewSnapshot(products, categories, f.now())
	if len(snap.Duplicates) > 0 {
		f.logger.Warnw("duplicate product ids in catalog, keeping first", "ids", snap.Duplicates)
	}
	f.current.Store(snap)
	f.logger.Debugw("catalog refreshed", "products", len(snap.Products), "categories", len(snap.Categories))
	return nil
}

// Run refreshes once immediately, then every interval until ctx is done.
func (f *Feed) Run(ctx context.Context) {
	if err := f.Refresh(ctx); err != nil {
		f.logger.Errorw("initial catalog refresh failed", "error", err)
	}
	if f.interval <= 0 {
		return
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				f.logger.Errorw("catalog refresh failed", "error", err)
			}
		}
	}
}
