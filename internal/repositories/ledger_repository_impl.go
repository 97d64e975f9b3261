package repositories

import (
	"context"
	"errors"
	"fmt"

	"gigpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) GetOrCreateBalance(userID uint) (*models.Balance, error) {
	var balance models.Balance
	err := r.db.Where(models.Balance{UserID: userID}).FirstOrCreate(&balance).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create balance: %w", err)
	}
	return &balance, nil
}

// GetBalanceForUpdate loads the balance row with a row-level lock.
// Only meaningful inside ExecuteInTransaction; a missing row is
// created so first-time users can receive funds.
func (r *ledgerRepository) GetBalanceForUpdate(userID uint) (*models.Balance, error) {
	var balance models.Balance
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = models.Balance{UserID: userID}
		if err := r.db.Create(&balance).Error; err != nil {
			return nil, fmt.Errorf("failed to create balance: %w", err)
		}
		return &balance, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}
	return &balance, nil
}

func (r *ledgerRepository) SaveBalance(balance *models.Balance) error {
	if err := r.db.Save(balance).Error; err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListBalances() ([]models.Balance, error) {
	var balances []models.Balance
	if err := r.db.Order("user_id ASC").Find(&balances).Error; err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	return balances, nil
}

func (r *ledgerRepository) CreateTransaction(txn *models.LedgerTransaction) error {
	if err := r.db.Create(txn).Error; err != nil {
		if txn.GatewayReference != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) SaveTransaction(txn *models.LedgerTransaction) error {
	if err := r.db.Save(txn).Error; err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetTransactionByID(id uint) (*models.LedgerTransaction, error) {
	var txn models.LedgerTransaction
	if err := r.db.First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

func (r *ledgerRepository) GetTransactionByGatewayReference(ref string) (*models.LedgerTransaction, error) {
	var txn models.LedgerTransaction
	if err := r.db.Where("gateway_reference = ?", ref).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}
	return &txn, nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, userID uint, filter TransactionFilter, limit, offset int) ([]models.LedgerTransaction, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var txns []models.LedgerTransaction
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

func (r *ledgerRepository) ListAllTransactions(userID uint) ([]models.LedgerTransaction, error) {
	var txns []models.LedgerTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("id ASC").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

func (r *ledgerRepository) SumRefundsForSource(sourceTransactionID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.LedgerTransaction{}).
		Where("source_transaction_id = ? AND type = ? AND status = ?",
			sourceTransactionID, models.TransactionTypeRefund, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum refunds: %w", err)
	}
	return total, nil
}

func (r *ledgerRepository) GetDisputeHoldForSource(sourceTransactionID uint) (*models.LedgerTransaction, error) {
	var txn models.LedgerTransaction
	err := r.db.Where("source_transaction_id = ? AND type = ?",
		sourceTransactionID, models.TransactionTypeDisputeHold).
		Order("id DESC").
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get dispute hold: %w", err)
	}
	return &txn, nil
}

func (r *ledgerRepository) ExecuteInTransaction(fn func(LedgerRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}
