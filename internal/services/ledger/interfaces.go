package ledger

import (
	"context"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
)

// Service is the balance aggregate. Apply is the only mutation
// primitive; everything else is read-only.
type Service interface {
	GetBalance(ctx context.Context, userID uint) (*models.Balance, error)
	Apply(ctx context.Context, userID uint, fn MutationFunc) error
	ListTransactions(ctx context.Context, userID uint, filter repositories.TransactionFilter, limit, offset int) ([]models.LedgerTransaction, error)
	Transition(tx repositories.LedgerRepository, txn *models.LedgerTransaction, next models.TransactionStatus) error
}

// MutationFunc receives the balance row locked for update and a
// repository bound to the same database transaction. It adjusts the
// balance fields and records the paired ledger transaction(s). After
// it returns, the service verifies no field went negative and commits;
// any error rolls the whole unit back.
type MutationFunc func(balance *models.Balance, tx repositories.LedgerRepository) error

// BalanceCache is the subset of the Redis cache the aggregate needs.
type BalanceCache interface {
	GetBalance(ctx context.Context, userID uint) (*models.Balance, error)
	SetBalance(ctx context.Context, balance *models.Balance) error
	Invalidate(ctx context.Context, userID uint) error
}
