package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is an authenticated principal owned by the identity provider.
type Identity struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	LastSignInAt *time.Time `gorm:"column:last_sign_in_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Identity) TableName() string { return "identities" }
