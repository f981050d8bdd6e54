package util

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ValidateName checks a customer display name (required, bounded).
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("name too long, max 64 characters")
	}
	return nil
}

// ValidateAmount checks a transaction amount (must be positive, capped).
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if amount.GreaterThanOrEqual(decimal.NewFromInt(10_000_000)) {
		return fmt.Errorf("amount too large, got %s", amount)
	}
	return nil
}

// ValidateDate checks a date string (must be YYYY-MM-DD).
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ValidateDirection checks a transaction direction flag.
func ValidateDirection(dir string) error {
	if dir != "credit" && dir != "debit" {
		return fmt.Errorf("direction must be credit or debit, got %q", dir)
	}
	return nil
}
