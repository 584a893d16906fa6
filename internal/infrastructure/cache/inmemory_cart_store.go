package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
)

// cartEntry holds an encoded cart with its expiration
type cartEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryCartStore implements cart.Store in process memory.
// Carts are stored encoded so callers never share line slices.
// Suitable for single-instance deployments and tests.
type InMemoryCartStore struct {
	mu        sync.RWMutex
	entries   map[string]cartEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCartStore creates a store and starts its expiry sweeper
func NewInMemoryCartStore(ttl time.Duration) *InMemoryCartStore {
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	s := &InMemoryCartStore{
		entries:  make(map[string]cartEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Get returns the session cart, or an empty one
func (s *InMemoryCartStore) Get(_ context.Context, sessionID string) (*cart.Cart, error) {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return cart.New(sessionID), nil
	}

	var c cart.Cart
	if err := json.Unmarshal(e.data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if c.Lines == nil {
		c.Lines = []cart.Line{}
	}
	return &c, nil
}

// Save replaces the session cart
func (s *InMemoryCartStore) Save(_ context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[c.SessionID] = cartEntry{data: data, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

// Delete removes the session cart
func (s *InMemoryCartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryCartStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryCartStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryCartStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Size returns the number of stored carts (for testing/monitoring)
func (s *InMemoryCartStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ cart.Store = (*InMemoryCartStore)(nil)
