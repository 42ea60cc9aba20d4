package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an IDNOFunny account.
//
// Accounts are created inactive and activated once through email
// verification. Deleting an account anonymizes it instead of removing the
// row, so historical memes and comments keep a valid owner reference.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`

	// Native auth fields
	PasswordHash *string `gorm:"type:text" json:"-"`
	IsActive     bool    `gorm:"default:false" json:"is_active"`

	// Password recovery (cleared after a successful reset)
	ResetToken        *string    `gorm:"index" json:"-"`
	ResetTokenExpires *time.Time `json:"-"`

	// Profile data
	AvatarURL *string `json:"avatar_url"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
