// models/game_participant.go
package models

import "time"

type ParticipantStatus string

const (
	ParticipantActive     ParticipantStatus = "active"
	ParticipantEliminated ParticipantStatus = "eliminated"
	ParticipantWinner     ParticipantStatus = "winner"
)

// GameParticipant = one user's seat in one game. (game_id, user_id) is unique;
// the database constraint is the only guard against double joins.
type GameParticipant struct {
	ID       string            `gorm:"primaryKey;type:uuid" json:"id"`
	GameID   string            `gorm:"type:uuid;not null;uniqueIndex:idx_game_participants_game_user,priority:1" json:"game_id"`
	UserID   string            `gorm:"type:uuid;not null;uniqueIndex:idx_game_participants_game_user,priority:2;index" json:"user_id"`
	JoinDate time.Time         `gorm:"not null" json:"join_date"`
	Status   ParticipantStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"` // active → eliminated | winner
	Score    int               `gorm:"not null;default:0" json:"score"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}
