package cart

import (
	"context"

	"github.com/localmarket/backend/internal/domain/cart"
)

// TransactionScope provides transactional access to the cart repository.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repository access within a transaction.
type TransactionalRepositories interface {
	// CartRepo returns the cart repository scoped to the current transaction
	CartRepo() cart.CartRepository
}

// NoOpTransactionScope runs the function without a real transaction. Useful
// for tests and for backends that already serialize writes.
type NoOpTransactionScope struct {
	cartRepo cart.CartRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the repository.
func NewNoOpTransactionScope(cartRepo cart.CartRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{cartRepo: cartRepo}
}

// Execute runs the function directly.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// CartRepo returns the cart repository.
func (s *NoOpTransactionScope) CartRepo() cart.CartRepository {
	return s.cartRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
