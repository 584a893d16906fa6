package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/cart"
)

const (
	defaultCartKeyPrefix = "cart:"
	defaultCartTTL       = 7 * 24 * time.Hour
)

// RedisCartStore keeps each session's cart as one JSON document.
// Every save refreshes the TTL, so idle carts expire on their own.
type RedisCartStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCartStore creates a cart store on an existing client
func NewRedisCartStore(client redis.UniversalClient, ttl time.Duration) *RedisCartStore {
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &RedisCartStore{
		client:    client,
		keyPrefix: defaultCartKeyPrefix,
		ttl:       ttl,
	}
}

// Get loads the session cart; a missing key yields an empty cart
func (s *RedisCartStore) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if c.Lines == nil {
		c.Lines = []cart.Line{}
	}
	c.SessionID = sessionID
	return &c, nil
}

// Save writes the whole cart and resets its TTL
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, s.key(c.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Delete removes the session cart
func (s *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}

func (s *RedisCartStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

var _ cart.Store = (*RedisCartStore)(nil)
