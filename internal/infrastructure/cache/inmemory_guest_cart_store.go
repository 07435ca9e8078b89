package cache

import (
	"context"
	"sync"
	"time"

	appcart "github.com/localmarket/backend/internal/application/cart"
	"github.com/localmarket/backend/internal/domain/shared"
)

// InMemoryGuestCartStore stages guest carts in process memory. Suitable for
// single-instance deployments and testing; state is not shared across
// instances and is lost on restart.
type InMemoryGuestCartStore struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	ttl     time.Duration
}

type inMemoryEntry struct {
	cart      appcart.GuestCart
	expiresAt time.Time
}

// NewInMemoryGuestCartStore creates a new in-memory guest cart store
func NewInMemoryGuestCartStore(ttl time.Duration) *InMemoryGuestCartStore {
	return &InMemoryGuestCartStore{
		entries: make(map[string]inMemoryEntry),
		ttl:     ttl,
	}
}

// Get returns the staged cart for the device
func (s *InMemoryGuestCartStore) Get(_ context.Context, deviceID string) (*appcart.GuestCart, error) {
	s.mu.RLock()
	entry, ok := s.entries[deviceID]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, shared.ErrNotFound
	}
	c := entry.cart
	c.Items = append([]appcart.GuestItem(nil), entry.cart.Items...)
	return &c, nil
}

// Save writes the staged cart, refreshing its TTL
func (s *InMemoryGuestCartStore) Save(_ context.Context, deviceID string, c *appcart.GuestCart) error {
	copied := *c
	copied.Items = append([]appcart.GuestItem(nil), c.Items...)

	s.mu.Lock()
	s.entries[deviceID] = inMemoryEntry{cart: copied, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// Delete discards the staged cart
func (s *InMemoryGuestCartStore) Delete(_ context.Context, deviceID string) error {
	s.mu.Lock()
	delete(s.entries, deviceID)
	s.mu.Unlock()
	return nil
}

var _ appcart.GuestCartStore = (*InMemoryGuestCartStore)(nil)
