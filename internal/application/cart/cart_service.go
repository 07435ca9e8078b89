package cart

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/localmarket/backend/internal/domain/business"
	"github.com/localmarket/backend/internal/domain/cart"
	"github.com/localmarket/backend/internal/domain/catalog"
	"github.com/localmarket/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CartObserver is notified after a cart mutation commits. The dependency is
// injected at construction so the coupling stays visible in the signature,
// rather than signalling through ambient events.
type CartObserver interface {
	CartChanged(ctx context.Context, ownerID uuid.UUID)
}

// NoopObserver ignores all notifications.
type NoopObserver struct{}

// CartChanged implements CartObserver.
func (NoopObserver) CartChanged(context.Context, uuid.UUID) {}

// CartService orchestrates the cart consolidation pipeline: identity
// resolution, admission, pricing, and the transactional store mutation with
// tenancy bookkeeping.
type CartService struct {
	scope       TransactionScope
	cartRepo    cart.CartRepository
	productRepo catalog.ProductRepository
	availRepo   catalog.AvailabilityRepository
	bizRepo     business.Repository
	observer    CartObserver
	validate    *validator.Validate
	logger      *zap.Logger
	cartTTL     time.Duration
}

// NewCartService creates a new CartService. The cartRepo handles reads
// outside transactions; all mutations go through the scope.
func NewCartService(
	scope TransactionScope,
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	availRepo catalog.AvailabilityRepository,
	bizRepo business.Repository,
	observer CartObserver,
	logger *zap.Logger,
	cartTTL time.Duration,
) *CartService {
	if observer == nil {
		observer = NoopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cartTTL <= 0 {
		cartTTL = cart.DefaultTTL
	}
	return &CartService{
		scope:       scope,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		availRepo:   availRepo,
		bizRepo:     bizRepo,
		observer:    observer,
		validate:    validator.New(),
		logger:      logger,
		cartTTL:     cartTTL,
	}
}

// GetCart returns the owner's assembled cart, or nil when the owner has no
// live cart.
func (s *CartService) GetCart(ctx context.Context, ownerID uuid.UUID) (*CartResponse, error) {
	c, err := s.cartRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.assemble(ctx, c)
}

// AddItem admits a quantity of a product into the owner's cart, creating the
// cart lazily and merging into an existing line when the canonical identity
// matches.
func (s *CartService) AddItem(ctx context.Context, ownerID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product ID must be a valid UUID")
	}
	var branchID *uuid.UUID
	if req.BranchID != nil {
		id, err := uuid.Parse(*req.BranchID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Branch ID must be a valid UUID")
		}
		branchID = &id
	}

	identity := cart.NewItemIdentity(productID, req.VariantSelection, req.SpecialInstructions, branchID)

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Product not found")
		}
		return nil, err
	}

	avail, err := s.resolveBranch(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}

	if err := s.admit(req.Quantity, identity, avail, product); err != nil {
		return nil, err
	}

	quote, err := s.quote(ctx, identity, product, avail, req.Quantity)
	if err != nil {
		return nil, err
	}

	effective := cart.EffectiveBusiness(branchID, product.BusinessID)

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.CartRepo()

		c, err := s.getOrCreate(ctx, repo, ownerID)
		if err != nil {
			return err
		}

		count, err := repo.CountItems(ctx, c.ID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByIdentity(ctx, c.ID, identity)
		switch {
		case err == nil:
			if err := existing.Merge(req.Quantity, quote); err != nil {
				return err
			}
			if err := repo.SaveItem(ctx, existing); err != nil {
				return err
			}
		case errors.Is(err, shared.ErrNotFound):
			item, err := cart.NewCartItem(c.ID, identity, req.Quantity, quote)
			if err != nil {
				return err
			}
			if err := repo.SaveItem(ctx, item); err != nil {
				return err
			}
		default:
			return err
		}

		c.ApplyBusiness(effective, count > 0)
		return repo.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.observer.CartChanged(ctx, ownerID)
	return s.GetCart(ctx, ownerID)
}

// UpdateItem changes an item's quantity and/or special instructions in
// place. Quantity changes recompute the subtotal from the stored unit price
// and adjustment.
func (s *CartService) UpdateItem(ctx context.Context, ownerID, itemID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	if req.Quantity == nil && req.SpecialInstructions == nil {
		return s.GetCart(ctx, ownerID)
	}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.CartRepo()
		item, err := repo.FindItemForOwner(ctx, ownerID, itemID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("NOT_FOUND", "Item not found in your cart")
			}
			return err
		}

		if req.Quantity != nil {
			if err := item.SetQuantity(*req.Quantity); err != nil {
				return err
			}
		}
		if req.SpecialInstructions != nil {
			item.SetInstructions(*req.SpecialInstructions)
		}
		return repo.SaveItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.observer.CartChanged(ctx, ownerID)
	return s.GetCart(ctx, ownerID)
}

// RemoveItem deletes an item. Removing the last item cascades the cart
// itself, in which case nil is returned.
func (s *CartService) RemoveItem(ctx context.Context, ownerID, itemID uuid.UUID) (*CartResponse, error) {
	var cartDeleted bool
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.CartRepo()
		item, err := repo.FindItemForOwner(ctx, ownerID, itemID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("NOT_FOUND", "Item not found in your cart")
			}
			return err
		}

		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return err
		}

		remaining, err := repo.CountItems(ctx, item.CartID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			cartDeleted = true
			return repo.Delete(ctx, item.CartID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observer.CartChanged(ctx, ownerID)
	if cartDeleted {
		return nil, nil
	}
	return s.GetCart(ctx, ownerID)
}

// ClearCart deletes the owner's cart and all its items. Clearing an absent
// cart is a no-op.
func (s *CartService) ClearCart(ctx context.Context, ownerID uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.CartRepo()
		c, err := repo.FindByOwner(ctx, ownerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		return repo.Delete(ctx, c.ID)
	})
	if err != nil {
		return err
	}

	s.observer.CartChanged(ctx, ownerID)
	return nil
}

// getOrCreate races safely on cart creation: the losing writer observes a
// conflict on the owner uniqueness and re-reads the winner's row. Create
// absorbs the conflict without a database error, keeping the enclosing
// transaction valid for that re-read.
func (s *CartService) getOrCreate(ctx context.Context, repo cart.CartRepository, ownerID uuid.UUID) (*cart.Cart, error) {
	c, err := repo.FindByOwner(ctx, ownerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	c, err = cart.NewCart(ownerID, s.cartTTL)
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, c); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return repo.FindByOwner(ctx, ownerID)
		}
		return nil, err
	}
	return c, nil
}

// resolveBranch validates the selected branch and loads the product's
// availability row for it. A branch with no configuration for the product
// falls back to global rules (nil availability).
func (s *CartService) resolveBranch(ctx context.Context, productID uuid.UUID, branchID *uuid.UUID) (*catalog.BranchAvailability, error) {
	if branchID == nil {
		return nil, nil
	}

	if _, err := s.bizRepo.FindActiveByID(ctx, *branchID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Branch not found or inactive")
		}
		return nil, err
	}

	avail, err := s.availRepo.FindForBranch(ctx, productID, *branchID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return avail, nil
}

// admit runs the admission gate and maps rejections to the error taxonomy.
func (s *CartService) admit(quantity int, identity cart.ItemIdentity, avail *catalog.BranchAvailability, product *catalog.Product) error {
	var branchStock *cart.BranchStock
	if avail != nil {
		branchStock = &cart.BranchStock{
			IsEnabled:      avail.IsEnabled,
			Stock:          avail.Stock,
			AllowBackorder: avail.AllowBackorder,
		}
	}

	switch cart.Admit(quantity, branchStock, product.IsAvailable) {
	case cart.Accept:
		return nil
	case cart.AcceptWithBackorder:
		s.logger.Info("admitting quantity as backorder",
			zap.String("product_id", identity.ProductID.String()),
			zap.Int("quantity", quantity))
		return nil
	default:
		if branchStock != nil && !branchStock.IsEnabled {
			return shared.NewDomainError("UNAVAILABLE", "Product is not available at this branch")
		}
		if branchStock != nil {
			return shared.NewDomainError("INSUFFICIENT_STOCK", "Requested quantity exceeds available stock")
		}
		return shared.NewDomainError("UNAVAILABLE", "Product is not available")
	}
}

// quote resolves selected options against the catalog and prices the line.
// Legacy option identifiers have already been dropped by the identity
// resolver; options unknown to the catalog or unavailable contribute
// nothing.
func (s *CartService) quote(ctx context.Context, identity cart.ItemIdentity, product *catalog.Product, avail *catalog.BranchAvailability, quantity int) (cart.Quote, error) {
	var selected []cart.SelectedOption
	if ids := identity.CanonicalOptionIDs(); len(ids) > 0 {
		options, err := s.productRepo.FindAvailableOptions(ctx, identity.ProductID, ids)
		if err != nil {
			return cart.Quote{}, err
		}
		byID := make(map[uuid.UUID]catalog.VariantOption, len(options))
		for _, opt := range options {
			byID[opt.ID] = opt
		}
		for _, id := range ids {
			opt, ok := byID[id]
			if !ok {
				continue
			}
			selected = append(selected, cart.SelectedOption{
				ID:              opt.ID.String(),
				PriceAdjustment: opt.PriceAdjustment,
				AbsolutePrice:   opt.AbsolutePrice,
			})
		}
	}

	return cart.CalculateQuote(cart.PriceInputs{
		ListPrice:   product.Price,
		BranchPrice: avail.OverridePrice(),
		Options:     selected,
	}, quantity)
}

// assemble builds the response for a cart, joining product names and
// availability for its items.
func (s *CartService) assemble(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	items, err := s.cartRepo.ListItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products := make(map[uuid.UUID]productInfo, len(ids))
	if len(ids) > 0 {
		found, err := s.productRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			products[p.ID] = productInfo{Name: p.Name, IsAvailable: p.IsAvailable}
		}
	}

	return toCartResponse(c, items, products), nil
}
