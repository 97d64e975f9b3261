package models

import (
	"time"
)

// TransactionType identifies what kind of balance movement a ledger
// transaction records.
type TransactionType string

const (
	TransactionTypePayment           TransactionType = "payment"
	TransactionTypeWithdrawal        TransactionType = "withdrawal"
	TransactionTypeRefund            TransactionType = "refund"
	TransactionTypeDisputeHold       TransactionType = "dispute_hold"
	TransactionTypeDisputeResolution TransactionType = "dispute_resolution"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeWithdrawal, TransactionTypeRefund,
		TransactionTypeDisputeHold, TransactionTypeDisputeResolution:
		return true
	}
	return false
}

// TransactionStatus is the closed set of lifecycle states. The state
// machine in CanTransitionTo governs every move between them.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
	TransactionStatusDisputed  TransactionStatus = "disputed"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed,
		TransactionStatusRefunded, TransactionStatusDisputed:
		return true
	}
	return false
}

// Terminal reports whether gateway delivery for the transaction has
// finished. A completed payment can still become disputed or refunded,
// but through its own workflow, never through redelivery.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo enforces the transaction state machine:
// pending -> completed|failed, completed -> disputed|refunded,
// disputed -> completed|refunded.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return next == TransactionStatusCompleted || next == TransactionStatusFailed
	case TransactionStatusCompleted:
		return next == TransactionStatusDisputed || next == TransactionStatusRefunded
	case TransactionStatusDisputed:
		return next == TransactionStatusCompleted || next == TransactionStatusRefunded
	}
	return false
}

// LedgerTransaction is the immutable record of a single
// balance-affecting event. Amount is always positive; the sign of the
// effect is implied by Type. BookingID is nil for withdrawals,
// PaymentMethodID is set only for withdrawals, GatewayReference is set
// once the external gateway knows about the movement and doubles as
// the idempotency key for webhook redelivery.
type LedgerTransaction struct {
	ID                  uint              `gorm:"primarykey" json:"id"`
	UserID              uint              `gorm:"not null;index" json:"user_id"`
	BookingID           *uint             `gorm:"index" json:"booking_id,omitempty"`
	Type                TransactionType   `gorm:"size:32;not null;index" json:"type"`
	Amount              int64             `gorm:"not null" json:"amount"`
	Status              TransactionStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`
	PaymentMethodID     *uint             `json:"payment_method_id,omitempty"`
	GatewayReference    string            `gorm:"size:128;index:idx_ledger_tx_gateway_ref,unique,where:gateway_reference <> ''" json:"gateway_reference,omitempty"`
	SourceTransactionID *uint             `gorm:"index" json:"source_transaction_id,omitempty"`
	Description         string            `json:"description,omitempty"`
	Metadata            JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}
