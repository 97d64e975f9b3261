package models

import "time"

// PaymentMethodType is the kind of stored payout instrument.
type PaymentMethodType string

const (
	PaymentMethodTypeCard        PaymentMethodType = "card"
	PaymentMethodTypeBankAccount PaymentMethodType = "bank_account"
)

func (t PaymentMethodType) Valid() bool {
	return t == PaymentMethodTypeCard || t == PaymentMethodTypeBankAccount
}

// SupportsPayout reports whether withdrawals may target this
// instrument type.
func (t PaymentMethodType) SupportsPayout() bool {
	return t == PaymentMethodTypeBankAccount
}

// PaymentMethod is a stored payout instrument owned by a user. The
// engine references it for withdrawals but never mutates it beyond the
// single-default constraint: at most one is_default per user.
type PaymentMethod struct {
	ID        uint              `gorm:"primarykey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	Type      PaymentMethodType `gorm:"size:16;not null" json:"type"`
	LastFour  string            `gorm:"size:4;not null" json:"last4"`
	IsDefault bool              `gorm:"default:false" json:"is_default"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
