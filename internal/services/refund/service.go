// Package refund reverses settled booking payments, in part or in
// full, tracking the cumulative refunded amount per source payment.
package refund

import (
	"context"
	"log"

	"gigpay/internal/gateway"
	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/settlement"
)

type Service struct {
	ledger   ledger.Service
	repo     repositories.LedgerRepository
	provider gateway.Provider
	booking  settlement.BookingMarker
}

func NewService(
	ledgerSvc ledger.Service,
	repo repositories.LedgerRepository,
	provider gateway.Provider,
	booking settlement.BookingMarker,
) *Service {
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if repo == nil {
		panic("repo is required")
	}
	if booking == nil {
		booking = settlement.NoopBookingMarker{}
	}
	return &Service{ledger: ledgerSvc, repo: repo, provider: provider, booking: booking}
}

// Refund debits the payee and records a compensating transaction for a
// prior completed payment. amount may be less than the payment for a
// partial refund; the remaining refundable amount shrinks with every
// refund recorded against the same source. If the payee already
// withdrew the funds the debit fails with ErrInsufficientFunds rather
// than clamping.
func (s *Service) Refund(ctx context.Context, sourceTransactionID uint, amount int64) (*models.LedgerTransaction, error) {
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	source, err := s.repo.GetTransactionByID(sourceTransactionID)
	if err != nil {
		return nil, err
	}
	if source.Type != models.TransactionTypePayment || source.Status != models.TransactionStatusCompleted {
		return nil, ErrNotRefundable
	}

	var txn *models.LedgerTransaction
	var fullyRefunded bool
	err = s.ledger.Apply(ctx, source.UserID, func(b *models.Balance, tx repositories.LedgerRepository) error {
		fresh, err := tx.GetTransactionByID(sourceTransactionID)
		if err != nil {
			return err
		}
		if fresh.Type != models.TransactionTypePayment || fresh.Status != models.TransactionStatusCompleted {
			return ErrNotRefundable
		}

		alreadyRefunded, err := tx.SumRefundsForSource(fresh.ID)
		if err != nil {
			return err
		}
		if amount > fresh.Amount-alreadyRefunded {
			return ErrNotRefundable
		}

		if b.Available < amount {
			return ledger.ErrInsufficientFunds
		}
		b.Available -= amount
		b.TotalEarnings -= amount

		srcID := fresh.ID
		txn = &models.LedgerTransaction{
			UserID:              fresh.UserID,
			BookingID:           fresh.BookingID,
			Type:                models.TransactionTypeRefund,
			Amount:              amount,
			Status:              models.TransactionStatusCompleted,
			SourceTransactionID: &srcID,
			Description:         "Refund of booking payment",
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}

		if alreadyRefunded+amount == fresh.Amount {
			fullyRefunded = true
			return s.ledger.Transition(tx, fresh, models.TransactionStatusRefunded)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Ask the gateway to push the money back to the customer. The
	// ledger debit stands either way; a rail failure is retried by the
	// operator against the same charge.
	if s.provider != nil && source.GatewayReference != "" {
		if _, err := s.provider.CreateRefund(ctx, source.GatewayReference, amount); err != nil {
			log.Printf("gateway refund for %s failed, retry required: %v", source.GatewayReference, err)
		}
	}

	if fullyRefunded && source.BookingID != nil {
		if err := s.booking.MarkRefunded(ctx, *source.BookingID); err != nil {
			log.Printf("failed to mark booking %d refunded: %v", *source.BookingID, err)
		}
	}

	return txn, nil
}
