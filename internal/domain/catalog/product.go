package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/localmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is the read-side view of a sellable product. The cart engine only
// consumes products; catalog management lives elsewhere.
type Product struct {
	shared.BaseEntity
	BusinessID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IsAvailable bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// VariantOption is one selectable option of a product's variant group. It
// carries either a price adjustment relative to the running unit price or an
// absolute price that replaces it.
type VariantOption struct {
	shared.BaseEntity
	ProductID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	GroupID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name            string           `gorm:"type:varchar(100);not null"`
	PriceAdjustment decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	AbsolutePrice   *decimal.Decimal `gorm:"type:decimal(18,2)"`
	IsAvailable     bool             `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (VariantOption) TableName() string {
	return "product_variants"
}

// BranchAvailability is the per-(product, branch) sale configuration: whether
// the product is sold there, an optional price override, advisory stock, and
// the backorder policy. Stock of nil means unlimited.
type BranchAvailability struct {
	shared.BaseEntity
	ProductID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_branch_availability,priority:1"`
	BranchID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_branch_availability,priority:2"`
	IsEnabled      bool             `gorm:"not null;default:true"`
	Price          *decimal.Decimal `gorm:"type:decimal(18,2)"`
	Stock          *int             `gorm:""`
	AllowBackorder bool             `gorm:"not null;default:false"`
	IsActive       bool             `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (BranchAvailability) TableName() string {
	return "product_branch_availability"
}

// OverridePrice returns the branch price override when this row is active,
// enabled, and carries one; nil otherwise.
func (a *BranchAvailability) OverridePrice() *decimal.Decimal {
	if a == nil || !a.IsActive || !a.IsEnabled || a.Price == nil {
		return nil
	}
	return a.Price
}

// ProductRepository is the read-only catalog port consumed by the cart engine.
type ProductRepository interface {
	// FindByID returns a product or shared.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDs returns the products among ids that exist; missing IDs are
	// silently absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	// FindAvailableOptions returns the product's available variant options
	// among the given option IDs.
	FindAvailableOptions(ctx context.Context, productID uuid.UUID, optionIDs []uuid.UUID) ([]VariantOption, error)
}

// AvailabilityRepository resolves per-branch sale configuration.
type AvailabilityRepository interface {
	// FindForBranch returns the active availability row for (product, branch)
	// or shared.ErrNotFound when the branch carries no configuration for the
	// product.
	FindForBranch(ctx context.Context, productID, branchID uuid.UUID) (*BranchAvailability, error)
}
