package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a ledger counterparty. Balance here is only a cache kept
// fresh by the sync engine's write-back; the source of truth is always
// the sum over the customer's transactions.
type Customer struct {
	ID      string          `gorm:"primaryKey;size:36"` // UUID
	UserID  uint            `gorm:"index;not null"`
	Name    string          `gorm:"size:64;not null"`
	Phone   string          `gorm:"size:32"`
	Address string          `gorm:"size:512"` // AES+base64 when an encryption key is configured
	Balance decimal.Decimal `gorm:"type:decimal(20,2);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
