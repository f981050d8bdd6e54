package models

import "time"

// AuditLog records important operations for auditing.
// Path and Action hold AES+base64 ciphertext when an encryption key is
// configured, plaintext otherwise.
type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    *uint  `gorm:"index"`
	Method    string `gorm:"size:16"`
	Path      string `gorm:"size:1024"`
	Action    string `gorm:"size:4096"`
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:255"`
	CreatedAt time.Time
}
