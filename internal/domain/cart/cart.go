package cart

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultTTL is the fixed lifetime of a cart from creation. Expiry is a
// passive field: an external sweep deletes expired carts, the engine never
// does.
const DefaultTTL = 30 * 24 * time.Hour

// Cart is the aggregate root for a shopper's pending selection. Each owner
// has at most one live cart (unique index on owner_id); it is created lazily
// on the first admitted add and deleted when its last item is removed.
//
// BusinessID tracks the cart's tenancy affiliation: nil before any item
// exists, the single business all items share, or nil again ("mixed") once
// items from more than one effective business have been admitted.
type Cart struct {
	shared.BaseAggregateRoot
	OwnerID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	BusinessID *uuid.UUID `gorm:"type:uuid;index"`
	ExpiresAt  time.Time  `gorm:"not null"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// NewCart creates an empty cart for the owner with a fresh expiry.
func NewCart(ownerID uuid.UUID, ttl time.Duration) (*Cart, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Owner ID cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		ExpiresAt:         time.Now().Add(ttl),
	}, nil
}

// ApplyBusiness updates the cart's affiliation for an admitted item whose
// effective business is effectiveBusiness. hadItems reports whether the cart
// held any item before this admission.
//
// The transition is monotonic: an empty cart adopts the item's business, a
// matching business keeps it, and a differing business clears it to nil
// (mixed). Once mixed, the cart stays mixed even if the differing items are
// later removed.
func (c *Cart) ApplyBusiness(effectiveBusiness uuid.UUID, hadItems bool) {
	switch {
	case c.BusinessID == nil && !hadItems:
		id := effectiveBusiness
		c.BusinessID = &id
	case c.BusinessID != nil && *c.BusinessID != effectiveBusiness:
		c.BusinessID = nil
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// IsMixed reports whether the cart holds items from more than one business.
// It is indistinguishable from "empty" by affiliation alone; callers that
// care must also check the item count.
func (c *Cart) IsMixed() bool {
	return c.BusinessID == nil
}

// EffectiveBusiness resolves the business an item belongs to for tenancy
// purposes: the branch when one was selected, else the product's owner.
func EffectiveBusiness(branchID *uuid.UUID, productBusinessID uuid.UUID) uuid.UUID {
	if branchID != nil {
		return *branchID
	}
	return productBusinessID
}

// CartItem is one consolidated line inside a cart. At most one item exists
// per (cart, product, canonical selection, instructions, branch) tuple; adds
// with an equal identity merge into the existing line.
type CartItem struct {
	shared.BaseEntity
	CartID              uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_cart_item_identity,priority:1"`
	ProductID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_identity,priority:2"`
	VariantSelection    VariantSelection `gorm:"type:jsonb;not null;default:'{}'"`
	SelectionKey        string           `gorm:"type:text;not null;uniqueIndex:idx_cart_item_identity,priority:3"`
	SpecialInstructions string           `gorm:"type:text;not null;default:'';uniqueIndex:idx_cart_item_identity,priority:4"`
	BranchID            *uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_item_identity,priority:5"`
	Quantity            int              `gorm:"not null"`
	UnitPrice           decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	VariantAdjustment   decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	Subtotal            decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// NewCartItem creates a line for a first admitted add of the given identity.
func NewCartItem(cartID uuid.UUID, identity ItemIdentity, quantity int, quote Quote) (*CartItem, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}
	return &CartItem{
		BaseEntity:          shared.NewBaseEntity(),
		CartID:              cartID,
		ProductID:           identity.ProductID,
		VariantSelection:    identity.Selection,
		SelectionKey:        identity.SelectionKey(),
		SpecialInstructions: identity.Instructions,
		BranchID:            identity.BranchID,
		Quantity:            quantity,
		UnitPrice:           quote.UnitPrice,
		VariantAdjustment:   quote.VariantAdjustment,
		Subtotal:            lineSubtotal(quote.UnitPrice, quote.VariantAdjustment, quantity),
	}, nil
}

// Identity reconstructs the canonical identity of this line.
func (i *CartItem) Identity() ItemIdentity {
	return NewItemIdentity(i.ProductID, i.VariantSelection, i.SpecialInstructions, i.BranchID)
}

// Merge folds another admitted add of the same identity into this line. The
// quantity is incremented and the subtotal recomputed over the combined
// quantity from the new pricing inputs, so a price change between adds is
// reflected on the whole line rather than leaving the stored subtotal stale.
func (i *CartItem) Merge(addQuantity int, quote Quote) error {
	if addQuantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}
	i.Quantity += addQuantity
	i.UnitPrice = quote.UnitPrice
	i.VariantAdjustment = quote.VariantAdjustment
	i.Subtotal = lineSubtotal(i.UnitPrice, i.VariantAdjustment, i.Quantity)
	i.UpdatedAt = time.Now()
	return nil
}

// SetQuantity replaces the quantity and recomputes the subtotal from the
// stored unit price and adjustment.
func (i *CartItem) SetQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}
	i.Quantity = quantity
	i.Subtotal = lineSubtotal(i.UnitPrice, i.VariantAdjustment, i.Quantity)
	i.UpdatedAt = time.Now()
	return nil
}

// SetInstructions replaces the special instructions in place. The line keeps
// its identity for future merges via the updated normalized value.
func (i *CartItem) SetInstructions(instructions string) {
	i.SpecialInstructions = strings.TrimSpace(instructions)
	i.UpdatedAt = time.Now()
}
