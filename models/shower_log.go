// models/shower_log.go
package models

import (
	"errors"
	"time"
)

// DefaultHygienePoints is what a single logged shower is worth.
const DefaultHygienePoints = 10

// ShowerLog is append-only: rows are never updated or deleted in normal flow.
type ShowerLog struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string    `gorm:"type:uuid;not null;index:idx_shower_logs_user_ts,priority:1" json:"user_id"`
	Timestamp     time.Time `gorm:"not null;index:idx_shower_logs_user_ts,priority:2,sort:desc" json:"timestamp"`
	HygienePoints int       `gorm:"not null;default:10" json:"hygiene_points"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// Validate checks the row before it is handed to the rest of the app.
func (l ShowerLog) Validate() error {
	if l.ID == "" || l.UserID == "" {
		return errors.New("shower log: missing id or user_id")
	}
	if l.Timestamp.IsZero() {
		return errors.New("shower log: missing timestamp")
	}
	return nil
}
