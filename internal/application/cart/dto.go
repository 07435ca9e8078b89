package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/localmarket/backend/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds a quantity of a product to the owner's cart.
type AddItemRequest struct {
	ProductID           string                `json:"product_id" validate:"required,uuid"`
	Quantity            int                   `json:"quantity" validate:"required,min=1"`
	VariantSelection    cart.VariantSelection `json:"variant_selection" validate:"omitempty"`
	SpecialInstructions string                `json:"special_instructions" validate:"max=500"`
	BranchID            *string               `json:"branch_id" validate:"omitempty,uuid"`
}

// UpdateItemRequest updates a line in place. Nil fields are left untouched;
// a request with no fields set is a no-op.
type UpdateItemRequest struct {
	Quantity            *int    `json:"quantity" validate:"omitempty,min=1"`
	SpecialInstructions *string `json:"special_instructions" validate:"omitempty,max=500"`
}

// CartItemResponse is one line of the assembled cart.
type CartItemResponse struct {
	ID                  uuid.UUID             `json:"id"`
	ProductID           uuid.UUID             `json:"product_id"`
	ProductName         string                `json:"product_name"`
	ProductAvailable    bool                  `json:"product_available"`
	VariantSelection    cart.VariantSelection `json:"variant_selection"`
	Quantity            int                   `json:"quantity"`
	UnitPrice           string                `json:"unit_price"`
	VariantAdjustment   string                `json:"variant_adjustment"`
	Subtotal            string                `json:"subtotal"`
	SpecialInstructions string                `json:"special_instructions"`
	BranchID            *uuid.UUID            `json:"branch_id,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
}

// CartResponse is the assembled cart with aggregate totals.
type CartResponse struct {
	ID            uuid.UUID          `json:"id"`
	OwnerID       uuid.UUID          `json:"owner_id"`
	BusinessID    *uuid.UUID         `json:"business_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	ExpiresAt     time.Time          `json:"expires_at"`
	Items         []CartItemResponse `json:"items"`
	Subtotal      string             `json:"subtotal"`
	ItemCount     int                `json:"item_count"`
	TotalQuantity int                `json:"total_quantity"`
}

// GuestItem is a locally-staged cart line with no server-assigned identity.
type GuestItem struct {
	ProductID           string                `json:"product_id"`
	Quantity            int                   `json:"quantity"`
	VariantSelection    cart.VariantSelection `json:"variant_selection,omitempty"`
	SpecialInstructions string                `json:"special_instructions,omitempty"`
	BranchID            *string               `json:"branch_id,omitempty"`
	BusinessID          *string               `json:"business_id,omitempty"`
	AddedAt             time.Time             `json:"added_at"`
}

// GuestCart is the staged, pre-login cart for one device.
type GuestCart struct {
	Items       []GuestItem `json:"items"`
	LastUpdated time.Time   `json:"last_updated"`
}

// MigrationResult reports the outcome of a guest cart migration.
type MigrationResult struct {
	Cart         *CartResponse `json:"cart"`
	SuccessCount int           `json:"success_count"`
	ErrorCount   int           `json:"error_count"`
}

func toCartResponse(c *cart.Cart, items []cart.CartItem, products map[uuid.UUID]productInfo) *CartResponse {
	resp := &CartResponse{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		BusinessID: c.BusinessID,
		CreatedAt:  c.CreatedAt,
		ExpiresAt:  c.ExpiresAt,
		Items:      make([]CartItemResponse, 0, len(items)),
	}

	subtotal := decimal.Zero
	for _, item := range items {
		info := products[item.ProductID]
		resp.Items = append(resp.Items, CartItemResponse{
			ID:                  item.ID,
			ProductID:           item.ProductID,
			ProductName:         info.Name,
			ProductAvailable:    info.IsAvailable,
			VariantSelection:    item.VariantSelection,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice.StringFixed(2),
			VariantAdjustment:   item.VariantAdjustment.StringFixed(2),
			Subtotal:            item.Subtotal.StringFixed(2),
			SpecialInstructions: item.SpecialInstructions,
			BranchID:            item.BranchID,
			CreatedAt:           item.CreatedAt,
		})
		subtotal = subtotal.Add(item.Subtotal)
		resp.TotalQuantity += item.Quantity
	}

	resp.ItemCount = len(items)
	resp.Subtotal = subtotal.StringFixed(2)
	return resp
}

type productInfo struct {
	Name        string
	IsAvailable bool
}
