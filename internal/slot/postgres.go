package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"storefront/internal/db"
)

// Postgres keeps slots in a single key/value table. Rows untouched for
// longer than ttl are removed by Purge; a zero ttl keeps them forever.
//
//	CREATE TABLE cart_slots (
//	  key        text PRIMARY KEY,
//	  value      jsonb NOT NULL,
//	  updated_at timestamptz NOT NULL DEFAULT now()
//	);
type Postgres struct {
	db  db.Querier
	ttl time.Duration
}

func NewPostgres(q db.Querier, ttl time.Duration) *Postgres {
	return &Postgres{db: q, ttl: ttl}
}

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRow(ctx, `SELECT value FROM cart_slots WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Save(ctx context.Context, key string, value []byte) error {
	_, err := p.db.Exec(ctx, `
INSERT INTO cart_slots (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = now()
`, key, value)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", key, err)
	}
	return nil
}

// Purge deletes expired slots and reports how many went.
func (p *Postgres) Purge(ctx context.Context) (int64, error) {
	if p.ttl <= 0 {
		return 0, nil
	}
	tag, err := p.db.Exec(ctx, `DELETE FROM cart_slots WHERE updated_at < $1`, time.Now().Add(-p.ttl))
	if err != nil {
		return 0, fmt.Errorf("purge slots: %w", err)
	}
	return tag.RowsAffected(), nil
}
