package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Document is the on-disk catalog export: the same shape the hosted store
// hands out, with products and categories side by side.
type Document struct {
	Products   []Product  `json:"products"`
	Categories []Category `json:"categories"`
}

// MemoryStore serves a fixed catalog. Used for local development, the CLI and
// tests.
type MemoryStore struct {
	mu         sync.RWMutex
	products   []Product
	categories []Category
}

func NewMemoryStore(products []Product, categories []Category) *MemoryStore {
	return &MemoryStore{products: products, categories: categories}
}

// LoadFile reads a catalog Document from a JSON file.
func LoadFile(path string) (*MemoryStore, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog file %s: %w", path, err)
	}
	return NewMemoryStore(doc.Products, doc.Categories), nil
}

// Replace swaps the served catalog, mimicking an upstream edit.
func (m *MemoryStore) Replace(products []Product, categories []Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
	m.categories = categories
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Product(nil), m.products...), nil
}

func (m *MemoryStore) ListCategories(ctx context.Context) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Category(nil), m.categories...), nil
}
