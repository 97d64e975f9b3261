package models

import (
	"time"
)

// Balance is the per-user ledger summary. Amounts are minor units
// (cents) of the platform currency. Every field must stay >= 0; the
// ledger service enforces this on each mutation.
type Balance struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Available     int64     `gorm:"not null;default:0" json:"available"`
	Pending       int64     `gorm:"not null;default:0" json:"pending"`
	Disputed      int64     `gorm:"not null;default:0" json:"disputed"`
	TotalEarnings int64     `gorm:"not null;default:0" json:"total_earnings"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Balance) TableName() string {
	return "balances"
}

// Total is the sum of all live buckets. It must always equal the
// signed sum of the user's ledger transactions.
func (b *Balance) Total() int64 {
	return b.Available + b.Pending + b.Disputed
}
