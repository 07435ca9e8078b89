package cache

import (
	"fmt"
	"time"

	appcart "github.com/localmarket/backend/internal/application/cart"
	"github.com/localmarket/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// GuestCartStoreFactory creates guest cart stores based on configuration
type GuestCartStoreFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// GuestCartStoreFactoryOption is a functional option for configuring the factory
type GuestCartStoreFactoryOption func(*GuestCartStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) GuestCartStoreFactoryOption {
	return func(f *GuestCartStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) GuestCartStoreFactoryOption {
	return func(f *GuestCartStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewGuestCartStoreFactory creates a new factory
func NewGuestCartStoreFactory(cfg config.RedisConfig, ttl time.Duration, opts ...GuestCartStoreFactoryOption) *GuestCartStoreFactory {
	f := &GuestCartStoreFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore creates a guest cart store. It tries Redis first and falls
// back to the in-memory store when Redis is unreachable and fallback is
// allowed. In-memory staging does not survive restarts or span instances.
func (f *GuestCartStoreFactory) CreateStore() (appcart.GuestCartStore, error) {
	store, err := NewRedisGuestCartStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.ttl)
	if err == nil {
		f.logger.Info("using Redis guest cart store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for guest cart staging but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory guest cart store",
		zap.Error(err))
	return NewInMemoryGuestCartStore(f.ttl), nil
}
