package carts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/slot"
)

// Sessions holds the open carts of active shoppers. Carts are opened from
// the slot on first use and evicted by Sweep once idle; evicted carts are
// reopened from the slot on their next request.
type Sessions struct {
	mu     sync.Mutex
	slot   slot.Slot
	logger *zap.SugaredLogger
	now    func() time.Time
	open   map[string]*session
}

type session struct {
	store    *Store
	lastSeen time.Time
}

func NewSessions(s slot.Slot, logger *zap.SugaredLogger) *Sessions {
	return &Sessions{
		slot:   s,
		logger: logger,
		now:    time.Now,
		open:   make(map[string]*session),
	}
}

// Get returns the cart for sessionID, opening it if needed.
func (s *Sessions) Get(ctx context.Context, sessionID string) *Store {
	s.mu.Lock()
	if sess, ok := s.open[sessionID]; ok {
		sess.lastSeen = s.now()
		s.mu.Unlock()
		return sess.store
	}
	s.mu.Unlock()

	// Slot I/O happens outside the lock.
	store := Open(ctx, s.slot, sessionID, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.open[sessionID]; ok {
		sess.lastSeen = s.now()
		return sess.store
	}
	s.open[sessionID] = &session{store: store, lastSeen: s.now()}
	return store
}

// Sweep evicts carts not used within idle and reports how many went. A cart
// whose lock is held by a running operation is kept for the next sweep. A
// handler that holds a *Store between operations for longer than idle can
// still see it evicted; its writes then race the reopened copy's.
func (s *Sessions) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	n := 0
	for id, sess := range s.open {
		if !sess.lastSeen.Before(cutoff) {
			continue
		}
		if !sess.store.mu.TryLock() {
			continue
		}
		delete(s.open, id)
		sess.store.mu.Unlock()
		n++
	}
	if n > 0 {
		s.logger.Infow("evicted idle carts", "count", n, "open", len(s.open))
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}
