package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	appcart "github.com/localmarket/backend/internal/application/cart"
	"github.com/localmarket/backend/internal/domain/shared"
)

// SessionRegistry maps device IDs to authenticated owners. The auth
// middleware records a device the first time it sees a validated token
// carrying a device_id claim; the guest cart migrator polls the registry
// while the login handshake settles.
type SessionRegistry struct {
	mu     sync.RWMutex
	owners map[string]uuid.UUID
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{owners: make(map[string]uuid.UUID)}
}

// Record associates a device with its authenticated owner
func (r *SessionRegistry) Record(deviceID string, ownerID uuid.UUID) {
	if deviceID == "" {
		return
	}
	r.mu.Lock()
	r.owners[deviceID] = ownerID
	r.mu.Unlock()
}

// Forget drops the device association, e.g. on logout
func (r *SessionRegistry) Forget(deviceID string) {
	r.mu.Lock()
	delete(r.owners, deviceID)
	r.mu.Unlock()
}

// OwnerID returns the owner for a device, or shared.ErrUnauthorized while
// no authenticated session has been seen for it.
func (r *SessionRegistry) OwnerID(_ context.Context, deviceID string) (uuid.UUID, error) {
	r.mu.RLock()
	ownerID, ok := r.owners[deviceID]
	r.mu.RUnlock()

	if !ok {
		return uuid.Nil, shared.ErrUnauthorized
	}
	return ownerID, nil
}

var _ appcart.CredentialSource = (*SessionRegistry)(nil)
