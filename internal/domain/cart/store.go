package cart

import "context"

// Store persists carts keyed by session id. Writes replace the whole cart
// (last write wins).
type Store interface {
	// Get returns the session's cart. A session without a cart yields an
	// empty cart, not an error.
	Get(ctx context.Context, sessionID string) (*Cart, error)

	// Save stores the cart under its session id
	Save(ctx context.Context, cart *Cart) error

	// Delete removes the session's cart; deleting a missing cart succeeds
	Delete(ctx context.Context, sessionID string) error
}

// Locker serializes work on one session's cart.
type Locker interface {
	// Lock blocks until the session is held exclusively or ctx is done.
	// The returned func releases the lock and is safe to call once.
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}
