package catalog

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("product not found")

// Snapshot is one complete, immutable view of the catalog. Callers never see
// partial updates: the feed swaps whole snapshots.
type Snapshot struct {
	Products   []Product
	Categories []Category
	FetchedAt  time.Time

	// Duplicates lists ids that appeared more than once; only the first
	// product with each id is kept.
	Duplicates []ID

	byID map[ID]int
}

func NewSnapshot(products []Product, categories []Category, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		Products:   make([]Product, 0, len(products)),
		Categories: append([]Category(nil), categories...),
		FetchedAt:  fetchedAt,
		byID:       make(map[ID]int, len(products)),
	}
	for _, p := range products {
		if _, ok := s.byID[p.ID]; ok {
			s.Duplicates = append(s.Duplicates, p.ID)
			continue
		}
		s.byID[p.ID] = len(s.Products)
		s.Products = append(s.Products, normalize(p))
	}
	return s
}

// normalize fills variant and tag ids from their map keys; documents coming
// from the hosted store often only carry the id as the key.
func normalize(p Product) Product {
	if len(p.Variants) > 0 {
		vs := make(map[ID]ProductVariant, len(p.Variants))
		for k, v := range p.Variants {
			if v.ID == "" {
				v.ID = k
			}
			vs[k] = v
		}
		p.Variants = vs
	}
	if len(p.Tags) > 0 {
		ts := make(map[ID]Tag, len(p.Tags))
		for k, t := range p.Tags {
			if t.ID == "" {
				t.ID = k
			}
			ts[k] = t
		}
		p.Tags = ts
	}
	return p
}

func (s *Snapshot) Product(id ID) (Product, error) {
	if s == nil {
		return Product{}, ErrNotFound
	}
	i, ok := s.byID[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return s.Products[i], nil
}

// Visible returns the products a storefront may show, in catalog order.
func (s *Snapshot) Visible() []Product {
	if s == nil {
		return nil
	}
	out := make([]Product, 0, len(s.Products))
	for _, p := range s.Products {
		if p.IsVisible() {
			out = append(out, p)
		}
	}
	return out
}

// CategoryNames is the id -> name lookup used to translate configured
// category ids into the names stored on products.
func (s *Snapshot) CategoryNames() map[ID]string {
	if s == nil {
		return map[ID]string{}
	}
	names := make(map[ID]string, len(s.Categories))
	for _, c := range s.Categories {
		names[c.ID] = c.Name
	}
	return names
}
