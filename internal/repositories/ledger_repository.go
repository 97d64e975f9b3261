package repositories

import (
	"context"
	"errors"

	"gigpay/internal/models"
)

var (
	ErrBalanceNotFound       = errors.New("balance not found")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrDuplicateReference    = errors.New("duplicate gateway reference")
)

// TransactionFilter narrows transaction listings. Zero values match
// everything.
type TransactionFilter struct {
	Type   models.TransactionType
	Status models.TransactionStatus
}

// LedgerRepository defines the database operations for balances and
// ledger transactions. ExecuteInTransaction yields a repository bound
// to a database transaction; every balance mutation and its paired
// transaction insert must run inside one such closure.
type LedgerRepository interface {
	// Balance operations
	GetOrCreateBalance(userID uint) (*models.Balance, error)
	GetBalanceForUpdate(userID uint) (*models.Balance, error)
	SaveBalance(balance *models.Balance) error
	ListBalances() ([]models.Balance, error)

	// Transaction operations
	CreateTransaction(txn *models.LedgerTransaction) error
	SaveTransaction(txn *models.LedgerTransaction) error
	GetTransactionByID(id uint) (*models.LedgerTransaction, error)
	GetTransactionByGatewayReference(ref string) (*models.LedgerTransaction, error)
	ListTransactions(ctx context.Context, userID uint, filter TransactionFilter, limit, offset int) ([]models.LedgerTransaction, error)
	ListAllTransactions(userID uint) ([]models.LedgerTransaction, error)
	SumRefundsForSource(sourceTransactionID uint) (int64, error)
	GetDisputeHoldForSource(sourceTransactionID uint) (*models.LedgerTransaction, error)

	ExecuteInTransaction(fn func(LedgerRepository) error) error
}

// PaymentMethodRepository stores payout instruments. The engine only
// reads them and maintains the single-default constraint.
type PaymentMethodRepository interface {
	Create(pm *models.PaymentMethod) error
	GetByID(id uint) (*models.PaymentMethod, error)
	ListByUser(userID uint) ([]models.PaymentMethod, error)
	SetDefault(userID, id uint) error
}
