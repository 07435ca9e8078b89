package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/localmarket/backend/internal/domain/cart"
	"github.com/localmarket/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements cart.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByOwner finds the owner's cart
func (r *GormCartRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByID finds a cart by its ID
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new cart row. The owner conflict is absorbed with an
// ON CONFLICT DO NOTHING clause instead of letting the unique index raise:
// on Postgres a constraint error would abort the enclosing transaction and
// poison the follow-up re-read of the winner's row.
func (r *GormCartRepository) Create(ctx context.Context, c *cart.Cart) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoNothing: true,
	}).Create(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrAlreadyExists
	}
	return nil
}

// Save inserts or updates a cart row
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete removes a cart. The item rows cascade at the database level; the
// extra delete keeps sqlite-backed tests honest.
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cart.Cart{}, "id = ?", id).Error
	})
}

// ListItems returns a cart's items ordered by creation time
func (r *GormCartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]cart.CartItem, error) {
	var items []cart.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountItems returns the number of items in a cart
func (r *GormCartRepository) CountItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&cart.CartItem{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindItemByIdentity looks an item up by its canonical identity tuple. The
// selection is matched on its canonical key column, so option order in the
// original request does not matter.
func (r *GormCartRepository) FindItemByIdentity(ctx context.Context, cartID uuid.UUID, identity cart.ItemIdentity) (*cart.CartItem, error) {
	query := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Where("product_id = ?", identity.ProductID).
		Where("selection_key = ?", identity.SelectionKey()).
		Where("special_instructions = ?", identity.Instructions)
	if identity.BranchID != nil {
		query = query.Where("branch_id = ?", *identity.BranchID)
	} else {
		query = query.Where("branch_id IS NULL")
	}

	var item cart.CartItem
	if err := query.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindItemForOwner returns an item only when its cart belongs to the owner.
// Items in other owners' carts read as absent.
func (r *GormCartRepository) FindItemForOwner(ctx context.Context, ownerID, itemID uuid.UUID) (*cart.CartItem, error) {
	var item cart.CartItem
	if err := r.db.WithContext(ctx).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.owner_id = ?", itemID, ownerID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// SaveItem inserts or updates an item row
func (r *GormCartRepository) SaveItem(ctx context.Context, item *cart.CartItem) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DeleteItem removes one item
func (r *GormCartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&cart.CartItem{}, "id = ?", itemID).Error
}

var _ cart.CartRepository = (*GormCartRepository)(nil)
