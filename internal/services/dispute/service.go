// Package dispute runs the two-phase chargeback state machine: a hold
// that freezes funds when the gateway notifies of a chargeback, and a
// later resolution that releases (won) or forfeits (lost) them.
package dispute

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/ledger"
)

// Outcome is the gateway's verdict on a chargeback.
type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

func (o Outcome) Valid() bool {
	return o == OutcomeWon || o == OutcomeLost
}

type Service struct {
	ledger ledger.Service
	repo   repositories.LedgerRepository
}

func NewService(ledgerSvc ledger.Service, repo repositories.LedgerRepository) *Service {
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if repo == nil {
		panic("repo is required")
	}
	return &Service{ledger: ledgerSvc, repo: repo}
}

// Hold freezes the disputed amount out of the payee's available
// balance when a chargeback notice arrives. A chargeback cannot be
// refused, so when available funds fall short the hold is clamped to
// what is there; the shortfall is logged and kept in the hold's
// metadata for operators to chase.
func (s *Service) Hold(ctx context.Context, sourceTransactionID uint, amount int64) (*models.LedgerTransaction, error) {
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	source, err := s.repo.GetTransactionByID(sourceTransactionID)
	if err != nil {
		return nil, err
	}
	if source.Type != models.TransactionTypePayment {
		return nil, ErrNotDisputable
	}
	switch source.Status {
	case models.TransactionStatusCompleted:
	case models.TransactionStatusDisputed:
		return nil, ErrAlreadyDisputed
	default:
		return nil, ErrNotDisputable
	}
	if amount > source.Amount {
		return nil, ErrNotDisputable
	}

	var txn *models.LedgerTransaction
	err = s.ledger.Apply(ctx, source.UserID, func(b *models.Balance, tx repositories.LedgerRepository) error {
		fresh, err := tx.GetTransactionByID(sourceTransactionID)
		if err != nil {
			return err
		}
		if fresh.Status == models.TransactionStatusDisputed {
			return ErrAlreadyDisputed
		}
		if fresh.Status != models.TransactionStatusCompleted {
			return ErrNotDisputable
		}

		held := amount
		metadata := models.JSON{"requested_amount": amount}
		if b.Available < amount {
			held = b.Available
			shortfall := amount - held
			metadata["shortfall"] = shortfall
			log.Printf("ERROR: dispute hold on transaction %d short by %d: available=%d requested=%d",
				fresh.ID, shortfall, b.Available, amount)
		}
		b.Available -= held
		b.Disputed += held

		srcID := fresh.ID
		txn = &models.LedgerTransaction{
			UserID:              fresh.UserID,
			BookingID:           fresh.BookingID,
			Type:                models.TransactionTypeDisputeHold,
			Amount:              held,
			Status:              models.TransactionStatusDisputed,
			SourceTransactionID: &srcID,
			Metadata:            metadata,
			Description:         "Chargeback hold",
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}
		return s.ledger.Transition(tx, fresh, models.TransactionStatusDisputed)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Resolve closes an open dispute. won: the held amount returns to
// available and the payment reverts to completed. lost: the held
// amount leaves the ledger for good and lifetime earnings shrink with
// it; the payment becomes refunded. Resolving twice returns
// ErrAlreadyResolved.
func (s *Service) Resolve(ctx context.Context, sourceTransactionID uint, outcome Outcome) (*models.LedgerTransaction, error) {
	if !outcome.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	source, err := s.repo.GetTransactionByID(sourceTransactionID)
	if err != nil {
		return nil, err
	}
	hold, err := s.repo.GetDisputeHoldForSource(sourceTransactionID)
	if errors.Is(err, repositories.ErrTransactionNotFound) {
		return nil, ErrNotDisputable
	}
	if err != nil {
		return nil, err
	}
	if hold.Status != models.TransactionStatusDisputed {
		return nil, ErrAlreadyResolved
	}

	var txn *models.LedgerTransaction
	err = s.ledger.Apply(ctx, source.UserID, func(b *models.Balance, tx repositories.LedgerRepository) error {
		freshHold, err := tx.GetDisputeHoldForSource(sourceTransactionID)
		if err != nil {
			return err
		}
		if freshHold.Status != models.TransactionStatusDisputed {
			return ErrAlreadyResolved
		}
		freshSource, err := tx.GetTransactionByID(sourceTransactionID)
		if err != nil {
			return err
		}

		held := freshHold.Amount
		srcID := freshSource.ID
		txn = &models.LedgerTransaction{
			UserID:              freshSource.UserID,
			BookingID:           freshSource.BookingID,
			Type:                models.TransactionTypeDisputeResolution,
			Amount:              held,
			SourceTransactionID: &srcID,
			Metadata:            models.JSON{"outcome": string(outcome)},
		}

		switch outcome {
		case OutcomeWon:
			b.Disputed -= held
			b.Available += held
			txn.Status = models.TransactionStatusCompleted
			txn.Description = "Dispute won, funds released"
			if err := tx.CreateTransaction(txn); err != nil {
				return err
			}
			if err := s.ledger.Transition(tx, freshHold, models.TransactionStatusCompleted); err != nil {
				return err
			}
			return s.ledger.Transition(tx, freshSource, models.TransactionStatusCompleted)
		case OutcomeLost:
			b.Disputed -= held
			b.TotalEarnings -= held
			txn.Status = models.TransactionStatusRefunded
			txn.Description = "Dispute lost, funds forfeited"
			if err := tx.CreateTransaction(txn); err != nil {
				return err
			}
			if err := s.ledger.Transition(tx, freshHold, models.TransactionStatusRefunded); err != nil {
				return err
			}
			return s.ledger.Transition(tx, freshSource, models.TransactionStatusRefunded)
		}
		return ErrInvalidOutcome
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}
