package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/localmarket/backend/internal/domain/business"
	"github.com/localmarket/backend/internal/domain/catalog"
	"github.com/localmarket/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var p catalog.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByIDs returns the products among ids that exist
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []catalog.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindAvailableOptions returns the product's available variant options among
// the given option IDs. Unknown or unavailable IDs are simply absent.
func (r *GormProductRepository) FindAvailableOptions(ctx context.Context, productID uuid.UUID, optionIDs []uuid.UUID) ([]catalog.VariantOption, error) {
	if len(optionIDs) == 0 {
		return nil, nil
	}
	var options []catalog.VariantOption
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND id IN ? AND is_available = ?", productID, optionIDs, true).
		Find(&options).Error; err != nil {
		return nil, err
	}
	return options, nil
}

// GormAvailabilityRepository implements catalog.AvailabilityRepository using GORM
type GormAvailabilityRepository struct {
	db *gorm.DB
}

// NewGormAvailabilityRepository creates a new GormAvailabilityRepository
func NewGormAvailabilityRepository(db *gorm.DB) *GormAvailabilityRepository {
	return &GormAvailabilityRepository{db: db}
}

// FindForBranch returns the active availability row for (product, branch)
func (r *GormAvailabilityRepository) FindForBranch(ctx context.Context, productID, branchID uuid.UUID) (*catalog.BranchAvailability, error) {
	var a catalog.BranchAvailability
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ? AND is_active = ?", productID, branchID, true).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GormBusinessRepository implements business.Repository using GORM
type GormBusinessRepository struct {
	db *gorm.DB
}

// NewGormBusinessRepository creates a new GormBusinessRepository
func NewGormBusinessRepository(db *gorm.DB) *GormBusinessRepository {
	return &GormBusinessRepository{db: db}
}

// FindActiveByID returns an active business, treating inactive ones as absent
func (r *GormBusinessRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*business.Business, error) {
	var b business.Business
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
var _ catalog.AvailabilityRepository = (*GormAvailabilityRepository)(nil)
var _ business.Repository = (*GormBusinessRepository)(nil)
