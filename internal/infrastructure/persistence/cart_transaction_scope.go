package persistence

import (
	"context"

	appcart "github.com/localmarket/backend/internal/application/cart"
	"github.com/localmarket/backend/internal/domain/cart"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appcart.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// CartRepo returns the cart repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CartRepo() cart.CartRepository {
	return NewGormCartRepository(r.tx)
}

var _ appcart.TransactionScope = (*GormTransactionScope)(nil)
var _ appcart.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
