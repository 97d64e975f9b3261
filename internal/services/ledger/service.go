package ledger

import (
	"context"
	"fmt"
	"log"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
)

const maxListLimit = 100

type service struct {
	repo    repositories.LedgerRepository
	cache   BalanceCache
	metrics MetricsCollector
}

// NewService creates the balance aggregate. Cache may be nil; metrics
// falls back to a no-op collector.
func NewService(repo repositories.LedgerRepository, cache BalanceCache, metrics MetricsCollector) Service {
	if repo == nil {
		panic("repo is required")
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{repo: repo, cache: cache, metrics: metrics}
}

// GetBalance returns the user's balance, creating a zeroed row on
// first use. It never fails on absence.
func (s *service) GetBalance(ctx context.Context, userID uint) (*models.Balance, error) {
	if s.cache != nil {
		if balance, err := s.cache.GetBalance(ctx, userID); err == nil {
			return balance, nil
		}
	}

	balance, err := s.repo.GetOrCreateBalance(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetBalance(ctx, balance); err != nil {
			log.Printf("failed to cache balance for user %d: %v", userID, err)
		}
	}
	return balance, nil
}

// Apply runs a balance mutation and its paired transaction insert as
// one serializable unit. The balance row is locked for the duration,
// so concurrent mutations to the same user queue up instead of
// clobbering each other's reads.
func (s *service) Apply(ctx context.Context, userID uint, fn MutationFunc) error {
	var before, after models.Balance
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		balance, err := tx.GetBalanceForUpdate(userID)
		if err != nil {
			return err
		}
		before = *balance

		if err := fn(balance, tx); err != nil {
			return err
		}

		if balance.Available < 0 || balance.Pending < 0 ||
			balance.Disputed < 0 || balance.TotalEarnings < 0 {
			return ErrInsufficientFunds
		}

		after = *balance
		return tx.SaveBalance(balance)
	})
	if err != nil {
		s.metrics.RecordError("apply", err.Error())
		return err
	}

	if d := after.Available - before.Available; d != 0 {
		s.metrics.RecordBalanceChange(userID, "available", d)
	}
	if d := after.Pending - before.Pending; d != 0 {
		s.metrics.RecordBalanceChange(userID, "pending", d)
	}
	if d := after.Disputed - before.Disputed; d != 0 {
		s.metrics.RecordBalanceChange(userID, "disputed", d)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			log.Printf("failed to invalidate balance cache for user %d: %v", userID, err)
		}
	}
	return nil
}

func (s *service) ListTransactions(ctx context.Context, userID uint, filter repositories.TransactionFilter, limit, offset int) ([]models.LedgerTransaction, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, filter, limit, offset)
}

// Transition moves a transaction to its next status, refusing any move
// the state machine forbids. Terminal statuses are immutable.
func (s *service) Transition(tx repositories.LedgerRepository, txn *models.LedgerTransaction, next models.TransactionStatus) error {
	if !txn.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, txn.Status, next)
	}
	txn.Status = next
	return tx.SaveTransaction(txn)
}
