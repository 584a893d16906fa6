package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
)

// sessionSlot is a one-token semaphore shared by waiters on a session
type sessionSlot struct {
	token chan struct{}
	refs  int
}

// InMemorySessionLocker serializes cart work per session inside one process.
// Slots are reference counted and dropped when nobody holds or waits.
type InMemorySessionLocker struct {
	mu    sync.Mutex
	slots map[string]*sessionSlot
	wait  time.Duration
}

// NewInMemorySessionLocker creates a locker that gives up after wait
func NewInMemorySessionLocker(wait time.Duration) *InMemorySessionLocker {
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &InMemorySessionLocker{
		slots: make(map[string]*sessionSlot),
		wait:  wait,
	}
}

// Lock blocks until the session is free, ctx is done, or the wait runs out
func (l *InMemorySessionLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	slot := l.acquire(sessionID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot.token <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.token
				l.release(sessionID)
			})
		}, nil
	case <-ctx.Done():
		l.release(sessionID)
		return nil, ctx.Err()
	case <-timer.C:
		l.release(sessionID)
		return nil, cart.ErrCartBusy
	}
}

func (l *InMemorySessionLocker) acquire(sessionID string) *sessionSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[sessionID]
	if !ok {
		slot = &sessionSlot{token: make(chan struct{}, 1)}
		l.slots[sessionID] = slot
	}
	slot.refs++
	return slot
}

func (l *InMemorySessionLocker) release(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[sessionID]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, sessionID)
	}
}

// Sessions returns how many sessions are held or awaited (for testing)
func (l *InMemorySessionLocker) Sessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

var _ cart.Locker = (*InMemorySessionLocker)(nil)
