package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction direction values. Amount is always stored positive;
// the sign of its effect on the balance comes from Direction.
const (
	DirectionCredit = "credit" // "you gave" — balance goes up
	DirectionDebit  = "debit"  // "you got" — balance goes down
)

// Transaction is one dated monetary entry against a Customer.
type Transaction struct {
	ID         string          `gorm:"primaryKey;size:36"` // UUID
	UserID     uint            `gorm:"index;not null"`
	CustomerID string          `gorm:"size:36;index;not null"` // immutable after creation
	Direction  string          `gorm:"size:8;index;not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Note       string          `gorm:"size:512"`            // AES+base64 when an encryption key is configured
	EntryDate  time.Time       `gorm:"index;not null"`      // date-only precision
	CreatedAt  time.Time
	EditedAt   *time.Time // nil until the first edit

	Customer Customer `gorm:"constraint:OnDelete:CASCADE"`
}
