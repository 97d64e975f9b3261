// Package repotest provides in-memory repository fakes for service
// tests. The fakes mirror the Postgres-backed behavior closely enough
// for workflow testing: unique gateway references, lazy balance
// creation and filtered listings. They are not transactional; tests
// exercise validation paths that reject before mutating.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
)

type FakeLedgerRepository struct {
	mu       sync.Mutex
	balances map[uint]*models.Balance
	txns     map[uint]*models.LedgerTransaction
	nextBal  uint
	nextTxn  uint
}

func NewFakeLedgerRepository() *FakeLedgerRepository {
	return &FakeLedgerRepository{
		balances: make(map[uint]*models.Balance),
		txns:     make(map[uint]*models.LedgerTransaction),
	}
}

// SeedBalance installs a balance row directly, bypassing the ledger.
func (f *FakeLedgerRepository) SeedBalance(b models.Balance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextBal++
	b.ID = f.nextBal
	f.balances[b.UserID] = &b
}

func (f *FakeLedgerRepository) GetOrCreateBalance(userID uint) (*models.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getOrCreateLocked(userID), nil
}

func (f *FakeLedgerRepository) getOrCreateLocked(userID uint) *models.Balance {
	if b, ok := f.balances[userID]; ok {
		copied := *b
		return &copied
	}
	f.nextBal++
	b := &models.Balance{ID: f.nextBal, UserID: userID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.balances[userID] = b
	copied := *b
	return &copied
}

func (f *FakeLedgerRepository) GetBalanceForUpdate(userID uint) (*models.Balance, error) {
	return f.GetOrCreateBalance(userID)
}

func (f *FakeLedgerRepository) SaveBalance(balance *models.Balance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *balance
	copied.UpdatedAt = time.Now()
	f.balances[balance.UserID] = &copied
	return nil
}

func (f *FakeLedgerRepository) ListBalances() ([]models.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Balance, 0, len(f.balances))
	for _, b := range f.balances {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *FakeLedgerRepository) CreateTransaction(txn *models.LedgerTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if txn.GatewayReference != "" {
		for _, existing := range f.txns {
			if existing.GatewayReference == txn.GatewayReference {
				return repositories.ErrDuplicateReference
			}
		}
	}
	f.nextTxn++
	txn.ID = f.nextTxn
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = time.Now()
	copied := *txn
	f.txns[txn.ID] = &copied
	return nil
}

func (f *FakeLedgerRepository) SaveTransaction(txn *models.LedgerTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn.UpdatedAt = time.Now()
	copied := *txn
	f.txns[txn.ID] = &copied
	return nil
}

func (f *FakeLedgerRepository) GetTransactionByID(id uint) (*models.LedgerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn, ok := f.txns[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	copied := *txn
	return &copied, nil
}

func (f *FakeLedgerRepository) GetTransactionByGatewayReference(ref string) (*models.LedgerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, txn := range f.txns {
		if txn.GatewayReference == ref {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (f *FakeLedgerRepository) ListTransactions(_ context.Context, userID uint, filter repositories.TransactionFilter, limit, offset int) ([]models.LedgerTransaction, error) {
	all, _ := f.ListAllTransactions(userID)
	var filtered []models.LedgerTransaction
	for _, txn := range all {
		if filter.Type != "" && txn.Type != filter.Type {
			continue
		}
		if filter.Status != "" && txn.Status != filter.Status {
			continue
		}
		filtered = append(filtered, txn)
	}
	// newest first, as the real repository orders
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID > filtered[j].ID })
	if offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[offset:]
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (f *FakeLedgerRepository) ListAllTransactions(userID uint) ([]models.LedgerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LedgerTransaction
	for _, txn := range f.txns {
		if txn.UserID == userID {
			out = append(out, *txn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeLedgerRepository) SumRefundsForSource(sourceTransactionID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, txn := range f.txns {
		if txn.SourceTransactionID != nil && *txn.SourceTransactionID == sourceTransactionID &&
			txn.Type == models.TransactionTypeRefund && txn.Status == models.TransactionStatusCompleted {
			total += txn.Amount
		}
	}
	return total, nil
}

func (f *FakeLedgerRepository) GetDisputeHoldForSource(sourceTransactionID uint) (*models.LedgerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.LedgerTransaction
	for _, txn := range f.txns {
		if txn.SourceTransactionID != nil && *txn.SourceTransactionID == sourceTransactionID &&
			txn.Type == models.TransactionTypeDisputeHold {
			if latest == nil || txn.ID > latest.ID {
				latest = txn
			}
		}
	}
	if latest == nil {
		return nil, repositories.ErrTransactionNotFound
	}
	copied := *latest
	return &copied, nil
}

func (f *FakeLedgerRepository) ExecuteInTransaction(fn func(repositories.LedgerRepository) error) error {
	return fn(f)
}

type FakePaymentMethodRepository struct {
	mu      sync.Mutex
	methods map[uint]*models.PaymentMethod
	next    uint
}

func NewFakePaymentMethodRepository() *FakePaymentMethodRepository {
	return &FakePaymentMethodRepository{methods: make(map[uint]*models.PaymentMethod)}
}

func (f *FakePaymentMethodRepository) Create(pm *models.PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pm.IsDefault {
		for _, existing := range f.methods {
			if existing.UserID == pm.UserID {
				existing.IsDefault = false
			}
		}
	}
	f.next++
	pm.ID = f.next
	copied := *pm
	f.methods[pm.ID] = &copied
	return nil
}

func (f *FakePaymentMethodRepository) GetByID(id uint) (*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pm, ok := f.methods[id]
	if !ok {
		return nil, repositories.ErrPaymentMethodNotFound
	}
	copied := *pm
	return &copied, nil
}

func (f *FakePaymentMethodRepository) ListByUser(userID uint) ([]models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PaymentMethod
	for _, pm := range f.methods {
		if pm.UserID == userID {
			out = append(out, *pm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakePaymentMethodRepository) SetDefault(userID, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pm, ok := f.methods[id]
	if !ok || pm.UserID != userID {
		return repositories.ErrPaymentMethodNotFound
	}
	for _, existing := range f.methods {
		if existing.UserID == userID {
			existing.IsDefault = existing.ID == id
		}
	}
	return nil
}
