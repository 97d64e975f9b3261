// Package reconciliation audits stored balances against the ledger
// history that should produce them. It reports drift and never
// corrects it: rewriting a financial ledger without human review is
// worse than a visible discrepancy.
package reconciliation

import (
	"context"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
)

// Mismatch is one balance field that disagrees with the transaction
// history for a user.
type Mismatch struct {
	UserID   uint   `json:"user_id"`
	Field    string `json:"field"`
	Expected int64  `json:"expected"`
	Actual   int64  `json:"actual"`
}

// expectedBalance is the balance a user's transaction history implies.
type expectedBalance struct {
	available     int64
	pending       int64
	disputed      int64
	totalEarnings int64
}

type Service struct {
	repo repositories.LedgerRepository
}

func NewService(repo repositories.LedgerRepository) *Service {
	if repo == nil {
		panic("repo is required")
	}
	return &Service{repo: repo}
}

// Run walks every balance row, replays the user's transactions into
// expected bucket totals and collects all disagreements. It returns
// the full mismatch list instead of failing on the first so operators
// can triage drift in one pass.
func (s *Service) Run(ctx context.Context) ([]Mismatch, error) {
	balances, err := s.repo.ListBalances()
	if err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	for _, balance := range balances {
		if err := ctx.Err(); err != nil {
			return mismatches, err
		}

		txns, err := s.repo.ListAllTransactions(balance.UserID)
		if err != nil {
			return mismatches, err
		}

		expected := replay(txns)
		mismatches = append(mismatches, compare(&balance, expected)...)
	}
	return mismatches, nil
}

// replay folds a transaction history into the bucket totals it should
// have produced. The per-type contributions are written so that a hold
// and its later resolution compose without special-casing order.
func replay(txns []models.LedgerTransaction) expectedBalance {
	var e expectedBalance
	for _, txn := range txns {
		a := txn.Amount
		switch txn.Type {
		case models.TransactionTypePayment:
			switch txn.Status {
			case models.TransactionStatusPending:
				e.pending += a
			case models.TransactionStatusCompleted, models.TransactionStatusDisputed, models.TransactionStatusRefunded:
				// The original credit stands; refunds, holds and
				// resolutions carry their own compensating entries.
				e.available += a
				e.totalEarnings += a
			}
		case models.TransactionTypeWithdrawal:
			switch txn.Status {
			case models.TransactionStatusPending:
				e.available -= a
				e.pending += a
			case models.TransactionStatusCompleted:
				e.available -= a
			}
			// failed withdrawals net to zero
		case models.TransactionTypeRefund:
			if txn.Status == models.TransactionStatusCompleted {
				e.available -= a
				e.totalEarnings -= a
			}
		case models.TransactionTypeDisputeHold:
			e.available -= a
			e.disputed += a
		case models.TransactionTypeDisputeResolution:
			switch txn.Status {
			case models.TransactionStatusCompleted: // won
				e.disputed -= a
				e.available += a
			case models.TransactionStatusRefunded: // lost
				e.disputed -= a
				e.totalEarnings -= a
			}
		}
	}
	return e
}

func compare(balance *models.Balance, expected expectedBalance) []Mismatch {
	var out []Mismatch
	check := func(field string, exp, act int64) {
		if exp != act {
			out = append(out, Mismatch{
				UserID:   balance.UserID,
				Field:    field,
				Expected: exp,
				Actual:   act,
			})
		}
	}
	check("available", expected.available, balance.Available)
	check("pending", expected.pending, balance.Pending)
	check("disputed", expected.disputed, balance.Disputed)
	check("total_earnings", expected.totalEarnings, balance.TotalEarnings)
	return out
}
