package business

import (
	"context"

	"github.com/google/uuid"
	"github.com/localmarket/backend/internal/domain/shared"
)

// Business is a sellable location. A branch is itself a business row whose
// GroupID points at the business group it belongs to, mirroring how the
// platform models locations: selecting a branch for a cart item means the
// branch business becomes the item's effective business.
type Business struct {
	shared.BaseEntity
	Name     string     `gorm:"type:varchar(200);not null"`
	GroupID  *uuid.UUID `gorm:"type:uuid;index"`
	IsActive bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Business) TableName() string {
	return "businesses"
}

// Repository is the read-only business/branch registry port.
type Repository interface {
	// FindActiveByID returns an active business or shared.ErrNotFound when
	// the business is absent or inactive.
	FindActiveByID(ctx context.Context, id uuid.UUID) (*Business, error)
}
