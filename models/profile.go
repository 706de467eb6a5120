// models/profile.go
package models

import (
	"errors"
	"strings"
	"time"
)

// Profile is the public face of an account. One per signed-up user.
type Profile struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	Username     *string `gorm:"uniqueIndex" json:"username,omitempty"`
	AvatarURL    *string `gorm:"type:text" json:"avatar_url,omitempty"`
	HygieneScore int     `gorm:"not null;default:0;index" json:"hygiene_score"` // stored projection, can drift from the log count

	Timestamps
}

// Account holds sign-in credentials. ID is shared with Profile.
type Account struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

var ErrInvalidUsername = errors.New("username must be 3-32 characters")

// NormalizeUsername trims the candidate and rejects out-of-range lengths.
func NormalizeUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if len(name) < 3 || len(name) > 32 {
		return "", ErrInvalidUsername
	}
	return name, nil
}

// DisplayName falls back to a shortened id when no username was chosen.
func (p Profile) DisplayName() string {
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	if len(p.ID) > 8 {
		return p.ID[:8]
	}
	return p.ID
}
