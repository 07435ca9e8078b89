package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appcart "github.com/localmarket/backend/internal/application/cart"
	"github.com/localmarket/backend/internal/domain/business"
	"github.com/localmarket/backend/internal/domain/cart"
	"github.com/localmarket/backend/internal/domain/catalog"
	"github.com/localmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&business.Business{},
		&catalog.Product{},
		&catalog.VariantOption{},
		&catalog.BranchAvailability{},
		&cart.Cart{},
		&cart.CartItem{},
	)
	require.NoError(t, err)
	return db
}

func mustQuote(t *testing.T, price string, quantity int) cart.Quote {
	t.Helper()
	d, err := decimal.NewFromString(price)
	require.NoError(t, err)
	quote, err := cart.CalculateQuote(cart.PriceInputs{ListPrice: d}, quantity)
	require.NoError(t, err)
	return quote
}

func TestGormCartRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	c, err := cart.NewCart(ownerID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	found, err := repo.FindByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)
	assert.Equal(t, ownerID, found.OwnerID)

	byID, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, byID.ID)

	_, err = repo.FindByOwner(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCartRepository_OwnerUniqueness(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	first, err := cart.NewCart(ownerID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := cart.NewCart(ownerID, time.Hour)
	require.NoError(t, err)
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormCartRepository_CreateRaceKeepsTransactionUsable(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ownerID := uuid.New()

	winner, err := cart.NewCart(ownerID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, NewGormCartRepository(db).Create(ctx, winner))

	// The losing writer hits the owner conflict mid-transaction. Create
	// absorbs it, so the same transaction can re-read the winner's row and
	// keep working instead of aborting.
	err = db.Transaction(func(tx *gorm.DB) error {
		repo := NewGormCartRepository(tx)

		loser, err := cart.NewCart(ownerID, time.Hour)
		require.NoError(t, err)
		require.ErrorIs(t, repo.Create(ctx, loser), shared.ErrAlreadyExists)

		current, err := repo.FindByOwner(ctx, ownerID)
		require.NoError(t, err)
		assert.Equal(t, winner.ID, current.ID)

		item, err := cart.NewCartItem(current.ID,
			cart.NewItemIdentity(uuid.New(), nil, "", nil), 1, mustQuote(t, "4.00", 1))
		require.NoError(t, err)
		return repo.SaveItem(ctx, item)
	})
	require.NoError(t, err)

	count, err := NewGormCartRepository(db).CountItems(ctx, winner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestGormCartRepository_FindItemByIdentity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	c, err := cart.NewCart(uuid.New(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	productID := uuid.New()
	stored := cart.NewItemIdentity(productID, cart.VariantSelection{
		"size":     {"large"},
		"toppings": {"b", "a"},
	}, "  extra hot ", nil)
	item, err := cart.NewCartItem(c.ID, stored, 2, mustQuote(t, "9.00", 2))
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, item))

	t.Run("matches regardless of option order", func(t *testing.T) {
		lookup := cart.NewItemIdentity(productID, cart.VariantSelection{
			"toppings": {"a", "b"},
			"size":     {"large"},
		}, "extra hot", nil)

		found, err := repo.FindItemByIdentity(ctx, c.ID, lookup)
		require.NoError(t, err)
		assert.Equal(t, item.ID, found.ID)
	})

	t.Run("different instructions miss", func(t *testing.T) {
		lookup := cart.NewItemIdentity(productID, cart.VariantSelection{
			"toppings": {"a", "b"},
			"size":     {"large"},
		}, "mild", nil)

		_, err := repo.FindItemByIdentity(ctx, c.ID, lookup)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("branch-scoped identity is distinct from global", func(t *testing.T) {
		branchID := uuid.New()
		lookup := cart.NewItemIdentity(productID, cart.VariantSelection{
			"toppings": {"a", "b"},
			"size":     {"large"},
		}, "extra hot", &branchID)

		_, err := repo.FindItemByIdentity(ctx, c.ID, lookup)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCartRepository_ItemIdentityUniqueness(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	c, err := cart.NewCart(uuid.New(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	// NULL branch_id rows are not caught by the unique index (NULLs compare
	// distinct); those rely on the in-transaction identity lookup instead.
	branchID := uuid.New()
	identity := cart.NewItemIdentity(uuid.New(), nil, "", &branchID)
	first, err := cart.NewCartItem(c.ID, identity, 1, mustQuote(t, "5.00", 1))
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, first))

	duplicate, err := cart.NewCartItem(c.ID, identity, 2, mustQuote(t, "5.00", 2))
	require.NoError(t, err)
	err = repo.SaveItem(ctx, duplicate)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormCartRepository_FindItemForOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	c, err := cart.NewCart(ownerID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	item, err := cart.NewCartItem(c.ID, cart.NewItemIdentity(uuid.New(), nil, "", nil), 1, mustQuote(t, "4.00", 1))
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, item))

	found, err := repo.FindItemForOwner(ctx, ownerID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	_, err = repo.FindItemForOwner(ctx, uuid.New(), item.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCartRepository_DeleteCascadesItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	c, err := cart.NewCart(uuid.New(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	for i := 0; i < 2; i++ {
		item, err := cart.NewCartItem(c.ID, cart.NewItemIdentity(uuid.New(), nil, "", nil), 1, mustQuote(t, "3.00", 1))
		require.NoError(t, err)
		require.NoError(t, repo.SaveItem(ctx, item))
	}

	count, err := repo.CountItems(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.Delete(ctx, c.ID))

	_, err = repo.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	count, err = repo.CountItems(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGormCartRepository_ListItemsOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	c, err := cart.NewCart(uuid.New(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		item, err := cart.NewCartItem(c.ID, cart.NewItemIdentity(uuid.New(), nil, "", nil), 1, mustQuote(t, "2.00", 1))
		require.NoError(t, err)
		item.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.SaveItem(ctx, item))
		ids = append(ids, item.ID)
	}

	items, err := repo.ListItems(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, ids[i], item.ID)
	}
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	repo := NewGormCartRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	err := scope.Execute(ctx, func(repos appcart.TransactionalRepositories) error {
		c, err := cart.NewCart(ownerID, time.Hour)
		if err != nil {
			return err
		}
		if err := repos.CartRepo().Save(ctx, c); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	_, err = repo.FindByOwner(ctx, ownerID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
