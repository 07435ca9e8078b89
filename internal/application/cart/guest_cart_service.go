package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localmarket/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// GuestCartStore stages a device's cart before login. Implementations return
// shared.ErrNotFound when the device has no staged cart and
// shared.ErrStoreUnavailable when the backing store cannot be reached.
type GuestCartStore interface {
	Get(ctx context.Context, deviceID string) (*GuestCart, error)
	Save(ctx context.Context, deviceID string, c *GuestCart) error
	Delete(ctx context.Context, deviceID string) error
}

// CredentialSource resolves the authenticated owner for a device. It returns
// shared.ErrUnauthorized while the login handshake has not completed yet.
type CredentialSource interface {
	OwnerID(ctx context.Context, deviceID string) (uuid.UUID, error)
}

// GuestCartService manages the staged pre-login cart and migrates it into
// the persistent cart once the owner is known. The staged cart is permissive
// on purpose: items are not priced or admitted until migration replays them
// through the regular add pipeline.
type GuestCartService struct {
	store       GuestCartStore
	carts       *CartService
	creds       CredentialSource
	logger      *zap.Logger
	maxAttempts int
	backoff     time.Duration
}

// NewGuestCartService creates a new GuestCartService. maxAttempts and
// backoff bound the per-migration wait for credentials.
func NewGuestCartService(
	store GuestCartStore,
	carts *CartService,
	creds CredentialSource,
	logger *zap.Logger,
	maxAttempts int,
	backoff time.Duration,
) *GuestCartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &GuestCartService{
		store:       store,
		carts:       carts,
		creds:       creds,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// GetCart returns the device's staged cart, empty when nothing is staged.
func (s *GuestCartService) GetCart(ctx context.Context, deviceID string) (*GuestCart, error) {
	staged, err := s.store.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &GuestCart{Items: []GuestItem{}}, nil
		}
		return nil, err
	}
	return staged, nil
}

// AddItem stages an item for the device, merging into an existing staged
// line when the identity tuple matches.
func (s *GuestCartService) AddItem(ctx context.Context, deviceID string, item GuestItem) (*GuestCart, error) {
	if strings.TrimSpace(item.ProductID) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product ID is required")
	}
	if item.Quantity < 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Quantity must be at least 1")
	}

	staged, err := s.GetCart(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	item.VariantSelection = item.VariantSelection.Canonical()
	item.SpecialInstructions = strings.TrimSpace(item.SpecialInstructions)
	item.AddedAt = time.Now()

	key := guestIdentityKey(item)
	merged := false
	for i := range staged.Items {
		if guestIdentityKey(staged.Items[i]) == key {
			staged.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		staged.Items = append(staged.Items, item)
	}
	staged.LastUpdated = time.Now()

	if err := s.store.Save(ctx, deviceID, staged); err != nil {
		return nil, err
	}
	return staged, nil
}

// UpdateItem changes a staged line by position. Nil fields are untouched;
// a quantity below 1 removes the line.
func (s *GuestCartService) UpdateItem(ctx context.Context, deviceID string, index int, req UpdateItemRequest) (*GuestCart, error) {
	staged, err := s.GetCart(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(staged.Items) {
		return nil, shared.NewDomainError("NOT_FOUND", "Item not found in guest cart")
	}

	if req.Quantity != nil {
		if *req.Quantity < 1 {
			staged.Items = append(staged.Items[:index], staged.Items[index+1:]...)
		} else {
			staged.Items[index].Quantity = *req.Quantity
		}
	}
	if req.SpecialInstructions != nil && (req.Quantity == nil || *req.Quantity >= 1) {
		staged.Items[index].SpecialInstructions = strings.TrimSpace(*req.SpecialInstructions)
	}
	staged.LastUpdated = time.Now()

	if err := s.store.Save(ctx, deviceID, staged); err != nil {
		return nil, err
	}
	return staged, nil
}

// RemoveItem drops a staged line by position.
func (s *GuestCartService) RemoveItem(ctx context.Context, deviceID string, index int) (*GuestCart, error) {
	staged, err := s.GetCart(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(staged.Items) {
		return nil, shared.NewDomainError("NOT_FOUND", "Item not found in guest cart")
	}

	staged.Items = append(staged.Items[:index], staged.Items[index+1:]...)
	staged.LastUpdated = time.Now()

	if err := s.store.Save(ctx, deviceID, staged); err != nil {
		return nil, err
	}
	return staged, nil
}

// Clear discards the device's staged cart.
func (s *GuestCartService) Clear(ctx context.Context, deviceID string) error {
	err := s.store.Delete(ctx, deviceID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}

// ItemsByBusiness groups the staged items by the business the client tagged
// them with. Untagged items group under the empty key.
func (s *GuestCartService) ItemsByBusiness(ctx context.Context, deviceID string) (map[string][]GuestItem, error) {
	staged, err := s.GetCart(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]GuestItem)
	for _, item := range staged.Items {
		key := ""
		if item.BusinessID != nil {
			key = *item.BusinessID
		}
		groups[key] = append(groups[key], item)
	}
	return groups, nil
}

// Migrate moves the device's staged cart into the owner's persistent cart.
// It waits for the credential source within bounded attempts, replays items
// sequentially through the regular add pipeline, and clears the staged store
// only when at least one item made it across. The staged cart is preserved
// on a full failure so the client can retry.
func (s *GuestCartService) Migrate(ctx context.Context, deviceID string) (*MigrationResult, error) {
	ownerID, err := s.waitForOwner(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	staged, err := s.GetCart(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if len(staged.Items) == 0 {
		current, err := s.carts.GetCart(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return &MigrationResult{Cart: current}, nil
	}

	result, err := s.MigrateItems(ctx, ownerID, staged.Items)
	if err != nil {
		return nil, err
	}

	if result.SuccessCount > 0 {
		if err := s.Clear(ctx, deviceID); err != nil {
			// The persistent cart already holds the items; a stale staged
			// copy is recoverable, so log and move on.
			s.logger.Warn("failed to clear staged guest cart after migration",
				zap.String("device_id", deviceID),
				zap.Error(err))
		}
	}
	return result, nil
}

// MigrateItems replays staged items into the owner's cart one by one.
// Individual failures are counted and skipped rather than aborting the run.
func (s *GuestCartService) MigrateItems(ctx context.Context, ownerID uuid.UUID, items []GuestItem) (*MigrationResult, error) {
	result := &MigrationResult{}
	for _, item := range items {
		if _, err := uuid.Parse(item.ProductID); err != nil {
			s.logger.Warn("skipping staged item with malformed product id",
				zap.String("product_id", item.ProductID))
			result.ErrorCount++
			continue
		}

		req := AddItemRequest{
			ProductID:           item.ProductID,
			Quantity:            item.Quantity,
			VariantSelection:    item.VariantSelection,
			SpecialInstructions: item.SpecialInstructions,
			BranchID:            item.BranchID,
		}
		if _, err := s.carts.AddItem(ctx, ownerID, req); err != nil {
			s.logger.Warn("staged item failed to migrate",
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			result.ErrorCount++
			continue
		}
		result.SuccessCount++
	}

	current, err := s.carts.GetCart(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	result.Cart = current
	return result, nil
}

// waitForOwner polls the credential source until it yields an owner or the
// attempt budget runs out. The wait is per invocation; nothing is cached.
func (s *GuestCartService) waitForOwner(ctx context.Context, deviceID string) (uuid.UUID, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		ownerID, err := s.creds.OwnerID(ctx, deviceID)
		if err == nil {
			return ownerID, nil
		}
		if !errors.Is(err, shared.ErrUnauthorized) {
			return uuid.Nil, err
		}
		lastErr = err
		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return uuid.Nil, ctx.Err()
		case <-time.After(s.backoff):
		}
	}
	return uuid.Nil, lastErr
}

// guestIdentityKey is the staged-line merge key: product, canonical
// selection, trimmed instructions, and branch.
func guestIdentityKey(item GuestItem) string {
	branch := ""
	if item.BranchID != nil {
		branch = *item.BranchID
	}
	selection := item.VariantSelection.Canonical()
	return item.ProductID + "|" + selection.Key() + "|" + strings.TrimSpace(item.SpecialInstructions) + "|" + branch
}
