package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/db"
)

// Repository reads the catalog mirror kept in Postgres. Products are stored as
// JSONB documents, exactly as exported by the hosted store, so new optional
// fields need no migration.
//
//	CREATE TABLE products (
//	  id         text PRIMARY KEY,
//	  document   jsonb NOT NULL,
//	  created_at timestamptz NOT NULL DEFAULT now()
//	);
//	CREATE TABLE categories (
//	  id   text PRIMARY KEY,
//	  name text NOT NULL
//	);
type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, document
FROM products
ORDER BY created_at ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		var p Product
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("decode product %s: %w", id, err)
		}
		// The row key is authoritative.
		p.ID = ID(id)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("products rows error: %w", err)
	}

	return out, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		var id string
		if err := rows.Scan(&id, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID = ID(id)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplaceAll overwrites the mirror with products and categories. Run it
// inside a transaction so readers never see a half-imported catalog.
func (r *Repository) ReplaceAll(ctx context.Context, products []Product, categories []Category) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	for i, p := range products {
		if p.ID == "" {
			return fmt.Errorf("product at index %d has no id", i)
		}
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %s: %w", p.ID, err)
		}
		// created_at preserves the document order for ListProducts.
		_, err = r.db.Exec(ctx, `
INSERT INTO products (id, document, created_at)
VALUES ($1, $2, now() + make_interval(secs => $3::int / 1000000.0))
`, p.ID.String(), doc, i)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}

	for _, c := range categories {
		if _, err := r.db.Exec(ctx, `INSERT INTO categories (id, name) VALUES ($1, $2)`, c.ID.String(), c.Name); err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}
	return nil
}
