package withdrawal

import (
	"context"
	"fmt"
	"testing"

	"gigpay/internal/gateway"
	"gigpay/internal/models"
	"gigpay/internal/repositories/repotest"
	"gigpay/internal/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	payouts []gateway.PayoutRequest
	err     error
}

func (f *fakeProvider) CreatePayout(_ context.Context, req gateway.PayoutRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.payouts = append(f.payouts, req)
	return "po_" + req.Reference, nil
}

func (f *fakeProvider) CreateRefund(_ context.Context, reference string, amount int64) (string, error) {
	return "re_" + reference, nil
}

type fixture struct {
	repo     *repotest.FakeLedgerRepository
	methods  *repotest.FakePaymentMethodRepository
	provider *fakeProvider
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repotest.NewFakeLedgerRepository()
	methods := repotest.NewFakePaymentMethodRepository()
	provider := &fakeProvider{}
	ledgerSvc := ledger.NewService(repo, nil, nil)
	return &fixture{
		repo:     repo,
		methods:  methods,
		provider: provider,
		svc:      NewService(ledgerSvc, repo, methods, provider, "usd"),
	}
}

func (f *fixture) seedBankAccount(t *testing.T, userID uint) uint {
	t.Helper()
	pm := &models.PaymentMethod{UserID: userID, Type: models.PaymentMethodTypeBankAccount, LastFour: "6789"}
	require.NoError(t, f.methods.Create(pm))
	return pm.ID
}

func TestRequestReservesFunds(t *testing.T) {
	f := newFixture(t)
	f.repo.SeedBalance(models.Balance{UserID: 1, Available: 1000, TotalEarnings: 1000})
	pmID := f.seedBankAccount(t, 1)

	txn, err := f.svc.Request(context.Background(), 1, 600, pmID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	assert.Equal(t, models.TransactionTypeWithdrawal, txn.Type)
	assert.Equal(t, int64(600), txn.Amount)
	assert.NotEmpty(t, txn.GatewayReference)

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance.Available)
	assert.Equal(t, int64(600), balance.Pending)
	assert.Equal(t, int64(1000), balance.TotalEarnings, "withdrawal must not touch lifetime earnings")

	require.Len(t, f.provider.payouts, 1)
	assert.Equal(t, txn.GatewayReference, f.provider.payouts[0].Reference)
	assert.Equal(t, "usd", f.provider.payouts[0].Currency)
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)
	f.repo.SeedBalance(models.Balance{UserID: 1, Available: 1000})
	bankID := f.seedBankAccount(t, 1)

	card := &models.PaymentMethod{UserID: 1, Type: models.PaymentMethodTypeCard, LastFour: "4242"}
	require.NoError(t, f.methods.Create(card))
	otherUsers := &models.PaymentMethod{UserID: 2, Type: models.PaymentMethodTypeBankAccount, LastFour: "1111"}
	require.NoError(t, f.methods.Create(otherUsers))

	tests := []struct {
		name    string
		amount  int64
		method  uint
		wantErr error
	}{
		{"zero amount", 0, bankID, ledger.ErrInvalidAmount},
		{"negative amount", -50, bankID, ledger.ErrInvalidAmount},
		{"card cannot receive payouts", 100, card.ID, ErrPaymentMethodNoPayout},
		{"someone else's method", 100, otherUsers.ID, ErrPaymentMethodNotOwned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Request(context.Background(), 1, tt.amount, tt.method)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	// No failed attempt may have moved money.
	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.Available)
	assert.Zero(t, balance.Pending)
}

func TestRequestInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	f.repo.SeedBalance(models.Balance{UserID: 1, Available: 500})
	pmID := f.seedBankAccount(t, 1)

	_, err := f.svc.Request(context.Background(), 1, 501, pmID)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance.Available)
	assert.Zero(t, balance.Pending)
	assert.Empty(t, f.provider.payouts, "no payout may be submitted for a rejected request")
}

func TestRequestKeepsReservationWhenRailUnavailable(t *testing.T) {
	f := newFixture(t)
	f.repo.SeedBalance(models.Balance{UserID: 1, Available: 1000})
	pmID := f.seedBankAccount(t, 1)
	f.provider.err = fmt.Errorf("%w: connection refused", gateway.ErrUnavailable)

	txn, err := f.svc.Request(context.Background(), 1, 600, pmID)
	require.ErrorIs(t, err, gateway.ErrUnavailable)
	require.NotNil(t, txn, "reservation survives the rail outage")
	assert.Equal(t, models.TransactionStatusPending, txn.Status)

	balance, berr := f.repo.GetOrCreateBalance(1)
	require.NoError(t, berr)
	assert.Equal(t, int64(400), balance.Available)
	assert.Equal(t, int64(600), balance.Pending)

	// Rail recovers; the operator resubmits against the same reference.
	f.provider.err = nil
	require.NoError(t, f.svc.Resubmit(context.Background(), txn.GatewayReference))
	require.Len(t, f.provider.payouts, 1)
	assert.Equal(t, txn.GatewayReference, f.provider.payouts[0].Reference)
}

func TestConfirmSettlesPendingWithdrawal(t *testing.T) {
	f := newFixture(t)
	f.repo.SeedBalance(models.Balance{UserID: 1, Available: 1000, TotalEarnings: 1000})
	pmID := f.seedBankAccount(t, 1)

	txn, err := f.svc.Request(context.Background(), 1, 600, pmID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Confirm(context.Background(), txn.GatewayReference))

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance.Available)
	assert.Zero(t, balance.Pending)
	assert.Equal(t, int64(1000), balance.TotalEarnings)

	stored, err := f.repo.GetTransactionByGatewayReference(txn.GatewayReference)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, stored.Status)

	// Redelivered confirmation is a no-op.
	require.NoError(t, f.svc.Confirm(context.Background(), txn.GatewayReference))
	balance, err = f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance.Available)
	assert.Zero(t, balance.Pending)
}

func TestFailRestoresReservedFunds(t *testing.T) {
	f := newFixture(t)
	f.repo.SeedBalance(models.Balance{UserID: 1, Available: 1000})
	pmID := f.seedBankAccount(t, 1)

	txn, err := f.svc.Request(context.Background(), 1, 600, pmID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Fail(context.Background(), txn.GatewayReference, "account closed"))

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.Available)
	assert.Zero(t, balance.Pending)

	stored, err := f.repo.GetTransactionByGatewayReference(txn.GatewayReference)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, stored.Status)
	assert.Equal(t, "account closed", stored.Metadata["failure_reason"])

	// Redelivered failure is a no-op; a late confirmation is rejected.
	require.NoError(t, f.svc.Fail(context.Background(), txn.GatewayReference, "account closed"))
	require.ErrorIs(t, f.svc.Confirm(context.Background(), txn.GatewayReference), ErrAlreadyFinalized)
}

func TestConfirmRejectsNonWithdrawal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.CreateTransaction(&models.LedgerTransaction{
		UserID:           1,
		Type:             models.TransactionTypePayment,
		Amount:           500,
		Status:           models.TransactionStatusCompleted,
		GatewayReference: "pay-1",
	}))

	require.ErrorIs(t, f.svc.Confirm(context.Background(), "pay-1"), ErrNotWithdrawal)
	require.ErrorIs(t, f.svc.Fail(context.Background(), "pay-1", ""), ErrNotWithdrawal)
	require.ErrorIs(t, f.svc.Resubmit(context.Background(), "pay-1"), ErrNotWithdrawal)
}
