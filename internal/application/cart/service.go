// Package cart implements the session cart use cases.
package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrInvalidSession is returned when no session id accompanies a request
var ErrInvalidSession = shared.NewDomainError("INVALID_SESSION", "A session is required")

// CartService handles cart operations for one session at a time.
// Mutations for a session run under that session's lock.
type CartService struct {
	store   cart.Store
	locker  cart.Locker
	catalog catalog.Lookup
	calc    *pricing.Calculator
	logger  *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(
	store cart.Store,
	locker cart.Locker,
	lookup catalog.Lookup,
	calc *pricing.Calculator,
	logger *zap.Logger,
) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		store:   store,
		locker:  locker,
		catalog: lookup,
		calc:    calc,
		logger:  logger,
	}
}

// Add puts a product in the cart, merging with an existing line
func (s *CartService) Add(ctx context.Context, sessionID string, req AddItemRequest) (*AddItemResponse, error) {
	var resp *AddItemResponse
	err := s.withCart(ctx, sessionID, func(c *cart.Cart) (bool, error) {
		product, err := s.catalog.Get(ctx, req.ProductID)
		if err != nil {
			return false, err
		}

		outcome, err := c.Add(product, req.Quantity, req.Color)
		if err != nil {
			return false, err
		}

		line, _ := c.Line(product.ID)
		resp = &AddItemResponse{Outcome: outcome, Line: ToLineResponse(line)}

		s.logger.Debug("cart line added",
			zap.String("session_id", sessionID),
			zap.String("product_id", product.ID.String()),
			zap.String("outcome", string(outcome)),
			zap.Int("quantity", line.Quantity),
		)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Update sets quantity and color on an existing line
func (s *CartService) Update(ctx context.Context, sessionID string, productID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	var resp *CartResponse
	err := s.withCart(ctx, sessionID, func(c *cart.Cart) (bool, error) {
		if err := c.Update(productID, req.Quantity, req.Color); err != nil {
			return false, err
		}
		view, err := s.view(c)
		if err != nil {
			return false, err
		}
		resp = view
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Remove drops a product from the cart. Missing lines are ignored.
func (s *CartService) Remove(ctx context.Context, sessionID string, productID uuid.UUID) error {
	return s.withCart(ctx, sessionID, func(c *cart.Cart) (bool, error) {
		return c.Remove(productID), nil
	})
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return storageError(err)
	}
	return nil
}

// View returns the cart lines in insertion order with totals.
// An empty cart fails with cart.ErrEmptyCart.
func (s *CartService) View(ctx context.Context, sessionID string) (*CartResponse, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}

	c, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, storageError(err)
	}
	if c.IsEmpty() {
		return nil, cart.ErrEmptyCart
	}
	return s.view(c)
}

func (s *CartService) view(c *cart.Cart) (*CartResponse, error) {
	totals, err := s.calc.Compute(c.PricingLines())
	if err != nil {
		return nil, err
	}
	resp := ToCartResponse(c, totals)
	return &resp, nil
}

// withCart loads the session cart under lock, applies fn and saves the cart
// when fn reports a change.
func (s *CartService) withCart(ctx context.Context, sessionID string, fn func(c *cart.Cart) (bool, error)) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return storageError(err)
	}

	changed, err := fn(c)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := s.store.Save(ctx, c); err != nil {
		return storageError(err)
	}
	return nil
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	return nil
}

// storageError keeps domain errors as they are and wraps anything else
func storageError(err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return shared.NewStorageUnavailable(err)
}
