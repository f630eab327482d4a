// Package slot stores opaque byte snapshots under a string key. It is the
// durable home of each shopper's cart.
package slot

import (
	"context"
	"errors"
	"sync"
)

// ErrEmpty is returned by Load when nothing was ever saved under the key.
var ErrEmpty = errors.New("slot is empty")

type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Purger is implemented by backends without native expiry.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Memory keeps slots in process. Contents are lost on restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrEmpty
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Len reports how many keys hold a value.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
