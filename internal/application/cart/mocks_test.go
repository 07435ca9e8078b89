package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/localmarket/backend/internal/domain/business"
	"github.com/localmarket/backend/internal/domain/cart"
	"github.com/localmarket/backend/internal/domain/catalog"
	"github.com/stretchr/testify/mock"
)

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, ownerID)
	if c, ok := args.Get(0).(*cart.Cart); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*cart.Cart); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCartRepository) Create(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]cart.CartItem, error) {
	args := m.Called(ctx, cartID)
	if items, ok := args.Get(0).([]cart.CartItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCartRepository) CountItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	args := m.Called(ctx, cartID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCartRepository) FindItemByIdentity(ctx context.Context, cartID uuid.UUID, identity cart.ItemIdentity) (*cart.CartItem, error) {
	args := m.Called(ctx, cartID, identity)
	if item, ok := args.Get(0).(*cart.CartItem); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCartRepository) FindItemForOwner(ctx context.Context, ownerID, itemID uuid.UUID) (*cart.CartItem, error) {
	args := m.Called(ctx, ownerID, itemID)
	if item, ok := args.Get(0).(*cart.CartItem); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCartRepository) SaveItem(ctx context.Context, item *cart.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*catalog.Product); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if ps, ok := args.Get(0).([]catalog.Product); ok {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) FindAvailableOptions(ctx context.Context, productID uuid.UUID, optionIDs []uuid.UUID) ([]catalog.VariantOption, error) {
	args := m.Called(ctx, productID, optionIDs)
	if opts, ok := args.Get(0).([]catalog.VariantOption); ok {
		return opts, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockAvailabilityRepository struct {
	mock.Mock
}

func (m *MockAvailabilityRepository) FindForBranch(ctx context.Context, productID, branchID uuid.UUID) (*catalog.BranchAvailability, error) {
	args := m.Called(ctx, productID, branchID)
	if a, ok := args.Get(0).(*catalog.BranchAvailability); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*business.Business, error) {
	args := m.Called(ctx, id)
	if b, ok := args.Get(0).(*business.Business); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) CartChanged(ctx context.Context, ownerID uuid.UUID) {
	m.Called(ctx, ownerID)
}
