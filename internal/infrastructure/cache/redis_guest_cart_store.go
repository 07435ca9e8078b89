package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appcart "github.com/localmarket/backend/internal/application/cart"
	"github.com/localmarket/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultGuestCartKeyPrefix = "cart:guest:"

// RedisGuestCartStore stages guest carts in Redis so they survive across
// devices' requests and expire on their own. Suitable for distributed
// deployments where multiple instances serve the same device.
type RedisGuestCartStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisGuestCartStore creates a new Redis-backed guest cart store
func NewRedisGuestCartStore(cfg RedisConfig, ttl time.Duration) (*RedisGuestCartStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisGuestCartStoreWithClient(client, "", ttl), nil
}

// NewRedisGuestCartStoreWithClient creates a store with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisGuestCartStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisGuestCartStore {
	if keyPrefix == "" {
		keyPrefix = defaultGuestCartKeyPrefix
	}
	return &RedisGuestCartStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the staged cart for the device
func (s *RedisGuestCartStore) Get(ctx context.Context, deviceID string) (*appcart.GuestCart, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+deviceID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	var c appcart.GuestCart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("corrupt staged cart for device %s: %w", deviceID, err)
	}
	return &c, nil
}

// Save writes the staged cart, refreshing its TTL
func (s *RedisGuestCartStore) Save(ctx context.Context, deviceID string, c *appcart.GuestCart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.keyPrefix+deviceID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}

// Delete discards the staged cart
func (s *RedisGuestCartStore) Delete(ctx context.Context, deviceID string) error {
	if err := s.client.Del(ctx, s.keyPrefix+deviceID).Err(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisGuestCartStore) Close() error {
	return s.client.Close()
}

var _ appcart.GuestCartStore = (*RedisGuestCartStore)(nil)
