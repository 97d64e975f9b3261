package dispute

import (
	"context"
	"testing"

	"gigpay/internal/models"
	"gigpay/internal/repositories/repotest"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo       *repotest.FakeLedgerRepository
	settlement *settlement.Service
	svc        *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repotest.NewFakeLedgerRepository()
	ledgerSvc := ledger.NewService(repo, nil, nil)
	return &fixture{
		repo:       repo,
		settlement: settlement.NewService(ledgerSvc, repo, nil),
		svc:        NewService(ledgerSvc, repo),
	}
}

func (f *fixture) settlePayment(t *testing.T, userID uint, amount int64, reference string) *models.LedgerTransaction {
	t.Helper()
	txn, err := f.settlement.RecordPayment(context.Background(), settlement.RecordPaymentInput{
		BookingID:        10,
		UserID:           userID,
		Amount:           amount,
		GatewayReference: reference,
	})
	require.NoError(t, err)
	return txn
}

func TestHoldFreezesDisputedAmount(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 500, "ref-A")

	hold, err := f.svc.Hold(context.Background(), source.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeDisputeHold, hold.Type)
	assert.Equal(t, models.TransactionStatusDisputed, hold.Status)
	assert.Equal(t, int64(500), hold.Amount)

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Zero(t, balance.Available)
	assert.Equal(t, int64(500), balance.Disputed)
	assert.Equal(t, int64(500), balance.TotalEarnings, "a hold freezes funds, it does not forfeit them")

	stored, err := f.repo.GetTransactionByID(source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusDisputed, stored.Status)
}

func TestHoldClampsToAvailableFunds(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 500, "ref-A")

	// Part of the money already left via a completed withdrawal.
	require.NoError(t, f.repo.SaveBalance(&models.Balance{UserID: 1, Available: 300, TotalEarnings: 500}))

	hold, err := f.svc.Hold(context.Background(), source.ID, 500)
	require.NoError(t, err, "a chargeback cannot be refused for lack of funds")
	assert.Equal(t, int64(300), hold.Amount)
	assert.Equal(t, int64(500), hold.Metadata["requested_amount"])
	assert.Equal(t, int64(200), hold.Metadata["shortfall"])

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Zero(t, balance.Available)
	assert.Equal(t, int64(300), balance.Disputed)
}

func TestHoldValidation(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 500, "ref-A")

	_, err := f.svc.Hold(context.Background(), source.ID, 0)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = f.svc.Hold(context.Background(), source.ID, 600)
	require.ErrorIs(t, err, ErrNotDisputable, "hold may not exceed the disputed payment")

	wd := &models.LedgerTransaction{
		UserID: 1,
		Type:   models.TransactionTypeWithdrawal,
		Amount: 100,
		Status: models.TransactionStatusCompleted,
	}
	require.NoError(t, f.repo.CreateTransaction(wd))
	_, err = f.svc.Hold(context.Background(), wd.ID, 100)
	require.ErrorIs(t, err, ErrNotDisputable)

	// A second chargeback on an already-disputed payment.
	_, err = f.svc.Hold(context.Background(), source.ID, 500)
	require.NoError(t, err)
	_, err = f.svc.Hold(context.Background(), source.ID, 500)
	require.ErrorIs(t, err, ErrAlreadyDisputed)
}

func TestResolveWonReleasesFunds(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 500, "ref-A")
	hold, err := f.svc.Hold(context.Background(), source.ID, 500)
	require.NoError(t, err)

	resolution, err := f.svc.Resolve(context.Background(), source.ID, OutcomeWon)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeDisputeResolution, resolution.Type)
	assert.Equal(t, models.TransactionStatusCompleted, resolution.Status)
	assert.Equal(t, "won", resolution.Metadata["outcome"])

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance.Available)
	assert.Zero(t, balance.Disputed)
	assert.Equal(t, int64(500), balance.TotalEarnings)

	storedSource, err := f.repo.GetTransactionByID(source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, storedSource.Status)

	storedHold, err := f.repo.GetTransactionByID(hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, storedHold.Status)
}

func TestResolveLostForfeitsFunds(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 500, "ref-A")
	hold, err := f.svc.Hold(context.Background(), source.ID, 500)
	require.NoError(t, err)

	resolution, err := f.svc.Resolve(context.Background(), source.ID, OutcomeLost)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRefunded, resolution.Status)

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Zero(t, balance.Available)
	assert.Zero(t, balance.Disputed)
	assert.Zero(t, balance.TotalEarnings, "lost disputes reverse the earnings")

	storedSource, err := f.repo.GetTransactionByID(source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRefunded, storedSource.Status)

	storedHold, err := f.repo.GetTransactionByID(hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRefunded, storedHold.Status)
}

func TestResolveLostReleasesOnlyHeldAmount(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 500, "ref-A")

	// Clamped hold: only 300 was available to freeze.
	require.NoError(t, f.repo.SaveBalance(&models.Balance{UserID: 1, Available: 300, TotalEarnings: 500}))
	hold, err := f.svc.Hold(context.Background(), source.ID, 500)
	require.NoError(t, err)
	require.Equal(t, int64(300), hold.Amount)

	resolution, err := f.svc.Resolve(context.Background(), source.ID, OutcomeLost)
	require.NoError(t, err)
	assert.Equal(t, int64(300), resolution.Amount, "resolution moves exactly what the hold froze")

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Zero(t, balance.Available)
	assert.Zero(t, balance.Disputed)
	assert.Equal(t, int64(200), balance.TotalEarnings)
}

func TestResolveValidation(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 500, "ref-A")

	_, err := f.svc.Resolve(context.Background(), source.ID, Outcome("maybe"))
	require.ErrorIs(t, err, ErrInvalidOutcome)

	// No hold exists yet.
	_, err = f.svc.Resolve(context.Background(), source.ID, OutcomeWon)
	require.ErrorIs(t, err, ErrNotDisputable)

	_, err = f.svc.Hold(context.Background(), source.ID, 500)
	require.NoError(t, err)
	_, err = f.svc.Resolve(context.Background(), source.ID, OutcomeWon)
	require.NoError(t, err)

	// Resolving again must fail, whatever the outcome.
	_, err = f.svc.Resolve(context.Background(), source.ID, OutcomeWon)
	require.ErrorIs(t, err, ErrAlreadyResolved)
	_, err = f.svc.Resolve(context.Background(), source.ID, OutcomeLost)
	require.ErrorIs(t, err, ErrAlreadyResolved)
}
