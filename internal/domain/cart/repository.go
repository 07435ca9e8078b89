package cart

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository is the persistence port for carts and their items. All
// mutating methods are expected to run inside the caller's transaction scope;
// implementations return shared.ErrNotFound when a row is absent and
// shared.ErrAlreadyExists when a unique constraint is violated.
type CartRepository interface {
	// FindByOwner returns the owner's live cart without items.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*Cart, error)
	// FindByID returns a cart by its ID without items.
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)
	// Create inserts a new cart row. A concurrent insert for the same owner
	// reports shared.ErrAlreadyExists without raising a database error, so
	// the surrounding transaction stays usable for a re-read.
	Create(ctx context.Context, c *Cart) error
	// Save inserts or updates a cart row.
	Save(ctx context.Context, c *Cart) error
	// Delete removes a cart and cascades its items.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListItems returns a cart's items ordered by creation time ascending.
	ListItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error)
	// CountItems returns the number of items in a cart.
	CountItems(ctx context.Context, cartID uuid.UUID) (int64, error)
	// FindItemByIdentity looks an item up by its canonical identity tuple.
	FindItemByIdentity(ctx context.Context, cartID uuid.UUID, identity ItemIdentity) (*CartItem, error)
	// FindItemForOwner returns an item only when it belongs to the owner's cart.
	FindItemForOwner(ctx context.Context, ownerID, itemID uuid.UUID) (*CartItem, error)
	// SaveItem inserts or updates an item row.
	SaveItem(ctx context.Context, item *CartItem) error
	// DeleteItem removes one item.
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}
