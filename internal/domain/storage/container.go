package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"storefront/internal/domain/catalog"
	"storefront/internal/slot"
)

var ErrNoCatalogSource = errors.New("no catalog source: set CATALOG_FILE or DB_ADDR")

// Backends are the external systems the container may wire. Any of them may
// be zero.
type Backends struct {
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	SlotTTL     time.Duration
	CatalogFile string
}

type Container struct {
	pool    *pgxpool.Pool
	Catalog catalog.Store
	Slots   slot.Slot

	CatalogBackend string
	SlotBackend    string
}

// NewContainer picks the catalog source (file over Postgres) and the cart
// slot backend (Redis, then Postgres, then process memory).
func NewContainer(b Backends) (*Container, error) {
	c := &Container{pool: b.Pool}

	switch {
	case b.CatalogFile != "":
		store, err := catalog.LoadFile(b.CatalogFile)
		if err != nil {
			return nil, err
		}
		c.Catalog, c.CatalogBackend = store, "file"
	case b.Pool != nil:
		c.Catalog, c.CatalogBackend = catalog.NewRepository(b.Pool), "postgres"
	default:
		return nil, ErrNoCatalogSource
	}

	switch {
	case b.Redis != nil:
		c.Slots, c.SlotBackend = slot.NewRedis(b.Redis, b.SlotTTL), "redis"
	case b.Pool != nil:
		c.Slots, c.SlotBackend = slot.NewPostgres(b.Pool, b.SlotTTL), "postgres"
	default:
		c.Slots, c.SlotBackend = slot.NewMemory(), "memory"
	}

	return c, nil
}

// WithCatalogTx runs fn against a tx-scoped catalog repository and commits
// only if fn succeeds.
func (c *Container) WithCatalogTx(ctx context.Context, fn func(r *catalog.Repository) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container has no database pool")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	if err := fn(catalog.NewRepository(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
