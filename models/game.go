// models/game.go
package models

import (
	"errors"
	"math/big"
	"strings"
	"time"
)

type GameType string

const (
	GameTypeStinkWar  GameType = "stink_war"
	GameTypeNFTBadges GameType = "nft_badges"
)

// Valid reports whether t is one of the known game types.
func (t GameType) Valid() bool {
	return t == GameTypeStinkWar || t == GameTypeNFTBadges
}

// Game is a time-boxed competition with a pooled stake. Immutable after creation.
type Game struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string     `json:"name" gorm:"not null"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;not null"`
	Description *string    `json:"description,omitempty" gorm:"type:text"`
	PrizePool   string     `json:"prize_pool" gorm:"type:numeric(38,18);not null;default:0"` // ether units, kept as decimal text
	StartDate   time.Time  `json:"start_date" gorm:"not null"`
	EndDate     time.Time  `json:"end_date" gorm:"not null;index"`
	GameType    GameType   `json:"game_type" gorm:"type:varchar(32);not null"`
	CreatedBy   string     `json:"created_by" gorm:"type:uuid;not null;index"`
	SettledAt   *time.Time `json:"settled_at,omitempty" gorm:"index"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`

	Participants []GameParticipant `json:"participants,omitempty" gorm:"foreignKey:GameID"`
}

var (
	ErrGameNameRequired  = errors.New("name is required")
	ErrGameBadType       = errors.New("game_type must be stink_war or nft_badges")
	ErrGameBadPrizePool  = errors.New("prize_pool must be a non-negative decimal")
	ErrGameBadDateWindow = errors.New("end_date must be after start_date")
)

// Validate rejects a game that could never be played.
func (g Game) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrGameNameRequired
	}
	if !g.GameType.Valid() {
		return ErrGameBadType
	}
	pool, ok := new(big.Rat).SetString(g.PrizePool)
	if !ok || pool.Sign() < 0 {
		return ErrGameBadPrizePool
	}
	if !g.EndDate.After(g.StartDate) {
		return ErrGameBadDateWindow
	}
	return nil
}

// InProgress reports whether now falls inside the game window.
func (g Game) InProgress(now time.Time) bool {
	return !now.Before(g.StartDate) && now.Before(g.EndDate)
}
