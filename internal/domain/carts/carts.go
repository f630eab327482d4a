package carts

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain/catalog"
	"storefront/internal/slot"
)

// Store is one shopper's cart, mirrored to a slot after every change.
// Methods are safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	slot   slot.Slot
	key    string
	logger *zap.SugaredLogger
	items  []LineItem
}

// Open restores the cart saved for sessionID. A missing, unreadable or
// corrupt slot yields an empty cart; the problem is logged, never returned.
func Open(ctx context.Context, s slot.Slot, sessionID string, logger *zap.SugaredLogger) *Store {
	st := &Store{
		slot:   s,
		key:    SlotKey(sessionID),
		logger: logger,
		items:  []LineItem{},
	}

	raw, err := s.Load(ctx, st.key)
	switch {
	case errors.Is(err, slot.ErrEmpty):
		return st
	case err != nil:
		logger.Warnw("cart slot unreadable, starting empty", "key", st.key, "error", err)
		return st
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		logger.Warnw("cart slot corrupt, starting empty", "key", st.key, "error", err)
		return st
	}
	st.items = dropInvalid(items)
	return st
}

// dropInvalid removes lines no mutation could have produced and merges
// duplicate keys, keeping the first position.
func dropInvalid(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 || it.ID == "" {
			continue
		}
		if i, ok := index[it.Key()]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.Key()] = len(out)
		out = append(out, it)
	}
	return out
}

func (s *Store) Key() string { return s.key }

// AddItem merges quantity into the line for (product, variant) or appends a
// new one. The stored unit price is the variant's price when a variant is
// given, else the product's. A non-positive quantity or a product without an
// id is ignored, so every saved line survives Open. Stock is the caller's to
// check.
func (s *Store) AddItem(ctx context.Context, product catalog.Product, quantity int, variant *catalog.ProductVariant) error {
	if quantity <= 0 || product.ID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := LineKey(product.ID, variant)
	if i := s.indexOf(key); i >= 0 {
		s.items[i].Quantity += quantity
		return s.persist(ctx)
	}

	item := LineItem{Product: product.Clone(), Quantity: quantity}
	if variant != nil {
		v := *variant
		item.Variant = &v
		item.Price = v.Price
	}
	s.items = append(s.items, item)
	return s.persist(ctx)
}

// RemoveItem deletes the line with key. Unknown keys are ignored.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, key)
}

func (s *Store) remove(ctx context.Context, key string) error {
	i := s.indexOf(key)
	if i < 0 {
		return nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return s.persist(ctx)
}

// UpdateQuantity sets the quantity of the line with key. A quantity of zero
// or less removes the line. Unknown keys are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, key string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.remove(ctx, key)
	}
	i := s.indexOf(key)
	if i < 0 {
		return nil
	}
	s.items[i].Quantity = quantity
	return s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []LineItem{}
	return s.persist(ctx)
}

// Count is the sum of quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	for i, it := range s.items {
		out[i] = it.clone()
	}
	return out
}

// Item returns the line with key.
func (s *Store) Item(key string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(key); i >= 0 {
		return s.items[i].clone(), true
	}
	return LineItem{}, false
}

func (s *Store) indexOf(key string) int {
	for i, it := range s.items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

// persist writes the whole cart. Must be called with mu held.
func (s *Store) persist(ctx context.Context) error {
	raw, err := json.Marshal(s.items)
	if err == nil {
		err = s.slot.Save(ctx, s.key, raw)
	}
	if err != nil {
		s.logger.Warnw("cart persist failed", "key", s.key, "items", len(s.items), "error", err)
		return &PersistError{Key: s.key, Err: err}
	}
	return nil
}
