// Package settlement credits incoming booking payments once the
// gateway confirms them. Settlement is idempotent on the gateway
// reference: redelivered confirmations return the existing transaction
// without touching balances.
package settlement

import (
	"context"
	"errors"
	"log"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/ledger"
)

// BookingMarker notifies the booking system that its charge settled or
// was reversed. The booking workflow itself lives outside this engine.
type BookingMarker interface {
	MarkPaid(ctx context.Context, bookingID uint) error
	MarkRefunded(ctx context.Context, bookingID uint) error
}

// NoopBookingMarker logs instead of calling out; used when the booking
// system consumes ledger events some other way.
type NoopBookingMarker struct{}

func (NoopBookingMarker) MarkPaid(_ context.Context, bookingID uint) error {
	log.Printf("booking %d paid (no booking collaborator configured)", bookingID)
	return nil
}

func (NoopBookingMarker) MarkRefunded(_ context.Context, bookingID uint) error {
	log.Printf("booking %d refunded (no booking collaborator configured)", bookingID)
	return nil
}

// RecordPaymentInput is the gateway's settlement confirmation. UserID
// is the payee the booking system attached to the charge.
type RecordPaymentInput struct {
	BookingID        uint
	UserID           uint
	Amount           int64
	GatewayReference string
}

type Service struct {
	ledger  ledger.Service
	repo    repositories.LedgerRepository
	booking BookingMarker
}

func NewService(ledgerSvc ledger.Service, repo repositories.LedgerRepository, booking BookingMarker) *Service {
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if repo == nil {
		panic("repo is required")
	}
	if booking == nil {
		booking = NoopBookingMarker{}
	}
	return &Service{ledger: ledgerSvc, repo: repo, booking: booking}
}

// RecordPayment credits the payee's available balance and lifetime
// earnings for a confirmed charge. Gateways redeliver notifications;
// a reference seen before returns the recorded transaction as success.
func (s *Service) RecordPayment(ctx context.Context, in RecordPaymentInput) (*models.LedgerTransaction, error) {
	if in.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if in.GatewayReference == "" {
		return nil, ErrMissingReference
	}

	if existing, err := s.lookupReplay(in.GatewayReference); existing != nil || err != nil {
		return existing, err
	}

	bookingID := in.BookingID
	var txn *models.LedgerTransaction
	err := s.ledger.Apply(ctx, in.UserID, func(b *models.Balance, tx repositories.LedgerRepository) error {
		b.Available += in.Amount
		b.TotalEarnings += in.Amount

		txn = &models.LedgerTransaction{
			UserID:           in.UserID,
			BookingID:        &bookingID,
			Type:             models.TransactionTypePayment,
			Amount:           in.Amount,
			Status:           models.TransactionStatusCompleted,
			GatewayReference: in.GatewayReference,
			Description:      "Booking payment settled",
		}
		return tx.CreateTransaction(txn)
	})
	if errors.Is(err, repositories.ErrDuplicateReference) {
		// Concurrent redelivery won the insert; the unique index
		// rolled our credit back. Return the winner.
		return s.repo.GetTransactionByGatewayReference(in.GatewayReference)
	}
	if err != nil {
		return nil, err
	}

	// The booking system is eventually consistent with the ledger; a
	// failed notification is retried out of band, never unwound here.
	if err := s.booking.MarkPaid(ctx, in.BookingID); err != nil {
		log.Printf("failed to mark booking %d paid: %v", in.BookingID, err)
	}

	return txn, nil
}

// RecordFailedPayment records a gateway-declined charge. No balance is
// touched; the row exists so history and reconciliation see the event.
func (s *Service) RecordFailedPayment(ctx context.Context, in RecordPaymentInput) (*models.LedgerTransaction, error) {
	if in.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if in.GatewayReference == "" {
		return nil, ErrMissingReference
	}

	if existing, err := s.lookupReplay(in.GatewayReference); existing != nil || err != nil {
		return existing, err
	}

	bookingID := in.BookingID
	txn := &models.LedgerTransaction{
		UserID:           in.UserID,
		BookingID:        &bookingID,
		Type:             models.TransactionTypePayment,
		Amount:           in.Amount,
		Status:           models.TransactionStatusFailed,
		GatewayReference: in.GatewayReference,
		Description:      "Booking payment failed at gateway",
	}
	if err := s.repo.CreateTransaction(txn); err != nil {
		if errors.Is(err, repositories.ErrDuplicateReference) {
			return s.repo.GetTransactionByGatewayReference(in.GatewayReference)
		}
		return nil, err
	}
	return txn, nil
}

// lookupReplay returns the already-recorded transaction for a
// redelivered reference, or an error if the reference is attached to
// something other than a payment.
func (s *Service) lookupReplay(reference string) (*models.LedgerTransaction, error) {
	existing, err := s.repo.GetTransactionByGatewayReference(reference)
	if errors.Is(err, repositories.ErrTransactionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if existing.Type != models.TransactionTypePayment {
		return nil, ErrNotPayment
	}
	return existing, nil
}
