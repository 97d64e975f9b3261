package refund

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

type recordingMarker struct {
	refunded []uint
}

func (m *recordingMarker) MarkPaid(_ context.Context, bookingID uint) error { return nil }

func (m *recordingMarker) MarkRefunded(_ context.Context, bookingID uint) error {
	m.refunded = append(m.refunded, bookingID)
	return nil
}

type fixture struct {
	repo       *repotest.FakeLedgerRepository
	settlement *settlement.Service
	marker     *recordingMarker
	svc        *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repotest.NewFakeLedgerRepository()
	ledgerSvc := ledger.NewService(repo, nil, nil)
	marker := &recordingMarker{}
	return &fixture{
		repo:       repo,
		settlement: settlement.NewService(ledgerSvc, repo, nil),
		marker:     marker,
		svc:        NewService(ledgerSvc, repo, nil, marker),
	}
}

// settlePayment records a confirmed booking payment and returns it.
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

func TestFullRefund(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 200, "ref-A")

	txn, err := f.svc.Refund(context.Background(), source.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeRefund, txn.Type)
	assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
	require.NotNil(t, txn.SourceTransactionID)
	assert.Equal(t, source.ID, *txn.SourceTransactionID)

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Zero(t, balance.Available)
	assert.Zero(t, balance.TotalEarnings)

	stored, err := f.repo.GetTransactionByID(source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRefunded, stored.Status)

	assert.Equal(t, []uint{10}, f.marker.refunded)
}

func TestPartialRefundsTrackCumulativeTotal(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 500, "ref-A")

	_, err := f.svc.Refund(context.Background(), source.ID, 200)
	require.NoError(t, err)
	_, err = f.svc.Refund(context.Background(), source.ID, 200)
	require.NoError(t, err)

	// 400 of 500 refunded; the payment is still partially refundable.
	stored, err := f.repo.GetTransactionByID(source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, stored.Status)
	assert.Empty(t, f.marker.refunded, "partial refunds must not close the booking")

	// Only 100 remains; 200 exceeds it.
	_, err = f.svc.Refund(context.Background(), source.ID, 200)
	require.ErrorIs(t, err, ErrNotRefundable)

	_, err = f.svc.Refund(context.Background(), source.ID, 100)
	require.NoError(t, err)

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Zero(t, balance.Available)
	assert.Zero(t, balance.TotalEarnings)

	stored, err = f.repo.GetTransactionByID(source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRefunded, stored.Status)
	assert.Equal(t, []uint{10}, f.marker.refunded)
}

func TestRefundExceedingPaymentAmount(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 200, "ref-A")

	_, err := f.svc.Refund(context.Background(), source.ID, 300)
	require.ErrorIs(t, err, ErrNotRefundable)

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance.Available)
	assert.Equal(t, int64(200), balance.TotalEarnings)
}

func TestRefundAfterFundsWithdrawn(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 500, "ref-A")

	// The payee has already moved most of the money out.
	require.NoError(t, f.repo.SaveBalance(&models.Balance{UserID: 1, Available: 100, TotalEarnings: 500}))

	_, err := f.svc.Refund(context.Background(), source.ID, 300)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	balance, err := f.repo.GetOrCreateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Available, "failed refund must not clamp or partially debit")
	assert.Equal(t, int64(500), balance.TotalEarnings)
}

func TestRefundValidation(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 200, "ref-A")

	_, err := f.svc.Refund(context.Background(), source.ID, 0)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = f.svc.Refund(context.Background(), source.ID, -10)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	// Withdrawals are not refundable.
	wd := &models.LedgerTransaction{
		UserID: 1,
		Type:   models.TransactionTypeWithdrawal,
		Amount: 100,
		Status: models.TransactionStatusCompleted,
	}
	require.NoError(t, f.repo.CreateTransaction(wd))
	_, err = f.svc.Refund(context.Background(), wd.ID, 100)
	require.ErrorIs(t, err, ErrNotRefundable)

	// Neither is a payment that never completed.
	failed := &models.LedgerTransaction{
		UserID: 1,
		Type:   models.TransactionTypePayment,
		Amount: 100,
		Status: models.TransactionStatusFailed,
	}
	require.NoError(t, f.repo.CreateTransaction(failed))
	_, err = f.svc.Refund(context.Background(), failed.ID, 100)
	require.ErrorIs(t, err, ErrNotRefundable)
}

func TestRefundOfFullyRefundedPayment(t *testing.T) {
	f := newFixture(t)
	source := f.settlePayment(t, 1, 200, "ref-A")

	_, err := f.svc.Refund(context.Background(), source.ID, 200)
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), source.ID, 1)
	require.ErrorIs(t, err, ErrNotRefundable)
}
