package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// CartBackend bundles the store and locker the cart service runs on
type CartBackend struct {
	Store  cart.Store
	Locker cart.Locker
	// Kind is the backend actually in use (memory or redis)
	Kind  string
	close func() error
	ping  func(ctx context.Context) error
}

// Ping reports whether the backend's server is reachable. In-memory
// backends are always up.
func (b *CartBackend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the backend's resources
func (b *CartBackend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// CartBackendFactory creates cart backends based on configuration
type CartBackendFactory struct {
	cartConfig            config.CartConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// CartBackendFactoryOption is a functional option for configuring the factory
type CartBackendFactoryOption func(*CartBackendFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) CartBackendFactoryOption {
	return func(f *CartBackendFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to memory when Redis is unavailable.
// Default is false: a configured Redis backend must be reachable.
func WithInMemoryFallback(allow bool) CartBackendFactoryOption {
	return func(f *CartBackendFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewCartBackendFactory creates a new factory
func NewCartBackendFactory(cartCfg config.CartConfig, redisCfg config.RedisConfig, opts ...CartBackendFactoryOption) *CartBackendFactory {
	f := &CartBackendFactory{
		cartConfig:  cartCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// CreateRedisBackend creates a Redis-backed cart store and locker on client
func (f *CartBackendFactory) CreateRedisBackend(client redis.UniversalClient) *CartBackend {
	return &CartBackend{
		Store:  NewRedisCartStore(client, f.cartConfig.TTL),
		Locker: NewRedisSessionLocker(client, f.cartConfig.LockTTL, f.cartConfig.LockWait, f.logger.Named("cart_lock")),
		Kind:   config.CartBackendRedis,
		ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

// CreateInMemoryBackend creates a process-local cart store and locker.
// Carts are lost on restart and not shared between instances.
func (f *CartBackendFactory) CreateInMemoryBackend() *CartBackend {
	store := NewInMemoryCartStore(f.cartConfig.TTL)
	return &CartBackend{
		Store:  store,
		Locker: NewInMemorySessionLocker(f.cartConfig.LockWait),
		Kind:   config.CartBackendMemory,
		close:  store.Close,
	}
}

// CreateBackend creates the configured backend. A Redis backend dials its
// own client, which is closed with the backend.
func (f *CartBackendFactory) CreateBackend() (*CartBackend, error) {
	if f.cartConfig.Backend != config.CartBackendRedis {
		f.logger.Info("using in-memory cart store")
		return f.CreateInMemoryBackend(), nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis cart store", zap.String("addr", f.redisConfig.Addr()))
		backend := f.CreateRedisBackend(client)
		backend.close = client.Close
		return backend, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis cart backend unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cart store. "+
		"Carts will not be shared across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryBackend(), nil
}
