package users

import (
	"strings"
	"time"
)

// Account is a locally managed identity: the {uid, email} pair every room and
// note references, plus the credential hash backing password login.
type Account struct {
	UserID       string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:190;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing user accounts.
func (Account) TableName() string {
	return "accounts"
}

// normalizeEmail lowercases and trims an address for uniqueness comparisons.
func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
