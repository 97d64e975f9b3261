// Package withdrawal drives the two-phase payout workflow: a
// synchronous request that reserves funds, and an asynchronous
// confirmation or failure delivered later by the gateway.
package withdrawal

import (
	"context"
	"fmt"
	"log"

	"gigpay/internal/gateway"
	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/ledger"

	"github.com/google/uuid"
)

type Service struct {
	ledger   ledger.Service
	repo     repositories.LedgerRepository
	methods  repositories.PaymentMethodRepository
	provider gateway.Provider
	currency string
}

func NewService(
	ledgerSvc ledger.Service,
	repo repositories.LedgerRepository,
	methods repositories.PaymentMethodRepository,
	provider gateway.Provider,
	currency string,
) *Service {
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if repo == nil {
		panic("repo is required")
	}
	if methods == nil {
		panic("payment method repo is required")
	}
	if provider == nil {
		panic("gateway provider is required")
	}
	if currency == "" {
		currency = "usd"
	}
	return &Service{
		ledger:   ledgerSvc,
		repo:     repo,
		methods:  methods,
		provider: provider,
		currency: currency,
	}
}

// Request validates and reserves a withdrawal, then submits it to the
// payout rail. On success the returned transaction is pending; the
// gateway reports completion or failure later via webhook. If the rail
// is unreachable the reservation stays in place and the error wraps
// gateway.ErrUnavailable so the caller can retry.
func (s *Service) Request(ctx context.Context, userID uint, amount int64, paymentMethodID uint) (*models.LedgerTransaction, error) {
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	pm, err := s.methods.GetByID(paymentMethodID)
	if err != nil {
		return nil, err
	}
	if pm.UserID != userID {
		return nil, ErrPaymentMethodNotOwned
	}
	if !pm.Type.SupportsPayout() {
		return nil, ErrPaymentMethodNoPayout
	}

	reference := "wd-" + uuid.NewString()
	var txn *models.LedgerTransaction
	err = s.ledger.Apply(ctx, userID, func(b *models.Balance, tx repositories.LedgerRepository) error {
		if b.Available < amount {
			return ledger.ErrInsufficientFunds
		}
		b.Available -= amount
		b.Pending += amount

		pmID := pm.ID
		txn = &models.LedgerTransaction{
			UserID:           userID,
			Type:             models.TransactionTypeWithdrawal,
			Amount:           amount,
			Status:           models.TransactionStatusPending,
			PaymentMethodID:  &pmID,
			GatewayReference: reference,
			Description:      fmt.Sprintf("Withdrawal to %s ending in %s", pm.Type, pm.LastFour),
		}
		return tx.CreateTransaction(txn)
	})
	if err != nil {
		return nil, err
	}

	// Submit only after the reservation has committed; the reference
	// makes resubmission safe.
	_, err = s.provider.CreatePayout(ctx, gateway.PayoutRequest{
		Amount:      amount,
		Currency:    s.currency,
		Reference:   reference,
		Description: txn.Description,
	})
	if err != nil {
		log.Printf("payout submission failed for %s, reservation kept for retry: %v", reference, err)
		return txn, err
	}

	return txn, nil
}

// Resubmit retries the payout-rail submission for a still-pending
// withdrawal whose original submission failed with a gateway error.
func (s *Service) Resubmit(ctx context.Context, reference string) error {
	txn, err := s.repo.GetTransactionByGatewayReference(reference)
	if err != nil {
		return err
	}
	if txn.Type != models.TransactionTypeWithdrawal {
		return ErrNotWithdrawal
	}
	if txn.Status != models.TransactionStatusPending {
		return ErrAlreadyFinalized
	}
	_, err = s.provider.CreatePayout(ctx, gateway.PayoutRequest{
		Amount:      txn.Amount,
		Currency:    s.currency,
		Reference:   reference,
		Description: txn.Description,
	})
	return err
}

// Confirm settles a pending withdrawal after the gateway reports the
// payout went through: the reserved amount leaves pending for good.
// Redelivered confirmations are no-ops.
func (s *Service) Confirm(ctx context.Context, reference string) error {
	txn, err := s.repo.GetTransactionByGatewayReference(reference)
	if err != nil {
		return err
	}
	if txn.Type != models.TransactionTypeWithdrawal {
		return ErrNotWithdrawal
	}
	if txn.Status == models.TransactionStatusCompleted {
		return nil
	}
	if txn.Status.Terminal() {
		return ErrAlreadyFinalized
	}

	return s.ledger.Apply(ctx, txn.UserID, func(b *models.Balance, tx repositories.LedgerRepository) error {
		fresh, err := tx.GetTransactionByGatewayReference(reference)
		if err != nil {
			return err
		}
		if fresh.Status != models.TransactionStatusPending {
			// Lost the race to a concurrent delivery.
			return nil
		}
		b.Pending -= fresh.Amount
		return s.ledger.Transition(tx, fresh, models.TransactionStatusCompleted)
	})
}

// Fail reverses a pending withdrawal after the gateway reports the
// payout failed: the reserved amount moves from pending back to
// available and the transaction is marked failed.
func (s *Service) Fail(ctx context.Context, reference, reason string) error {
	txn, err := s.repo.GetTransactionByGatewayReference(reference)
	if err != nil {
		return err
	}
	if txn.Type != models.TransactionTypeWithdrawal {
		return ErrNotWithdrawal
	}
	if txn.Status == models.TransactionStatusFailed {
		return nil
	}
	if txn.Status.Terminal() {
		return ErrAlreadyFinalized
	}

	return s.ledger.Apply(ctx, txn.UserID, func(b *models.Balance, tx repositories.LedgerRepository) error {
		fresh, err := tx.GetTransactionByGatewayReference(reference)
		if err != nil {
			return err
		}
		if fresh.Status != models.TransactionStatusPending {
			return nil
		}
		b.Pending -= fresh.Amount
		b.Available += fresh.Amount

		if reason != "" {
			if fresh.Metadata == nil {
				fresh.Metadata = models.JSON{}
			}
			fresh.Metadata["failure_reason"] = reason
		}
		return s.ledger.Transition(tx, fresh, models.TransactionStatusFailed)
	})
}
