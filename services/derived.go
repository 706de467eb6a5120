// services/derived.go
package services

import (
	"fmt"
	"math"
	"time"

	"proof-of-hygiene/models"
)

// RelativeTime renders how long ago t was, rounding to the nearest unit.
func RelativeTime(t, now time.Time) string {
	elapsed := now.Sub(t)
	if elapsed < 0 {
		elapsed = 0
	}
	switch {
	case elapsed < time.Hour:
		return agoLabel(math.Round(elapsed.Minutes()), "minute")
	case elapsed < 24*time.Hour:
		return agoLabel(math.Round(elapsed.Hours()), "hour")
	default:
		return agoLabel(math.Round(elapsed.Hours()/24), "day")
	}
}

func agoLabel(n float64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", int64(n), unit)
}

// LastShowerLabel is RelativeTime for an optional timestamp.
func LastShowerLabel(last *time.Time, now time.Time) string {
	if last == nil {
		return "Never"
	}
	return RelativeTime(*last, now)
}

// Tier is the badge earned from a user's total shower count.
type Tier struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

var (
	TierGold   = Tier{Name: "gold", Emoji: "🥇"}
	TierSilver = Tier{Name: "silver", Emoji: "🥈"}
	TierBronze = Tier{Name: "bronze", Emoji: "🥉"}
)

// ClassifyTier buckets a shower count.
func ClassifyTier(showers int64) Tier {
	switch {
	case showers >= 10:
		return TierGold
	case showers >= 5:
		return TierSilver
	default:
		return TierBronze
	}
}

// HistoryEntry is one row of the personal history view.
type HistoryEntry struct {
	models.ShowerLog
	Streak int    `json:"streak"`
	Points int    `json:"points"`
	Ago    string `json:"ago"`
}

// AssignStreaks expects logs newest-first. The i-th log gets streak i+1 and
// 10 points per streak step. Position based, calendar gaps are ignored.
func AssignStreaks(logs []models.ShowerLog, now time.Time) []HistoryEntry {
	out := make([]HistoryEntry, len(logs))
	for i, entry := range logs {
		streak := i + 1
		out[i] = HistoryEntry{
			ShowerLog: entry,
			Streak:    streak,
			Points:    models.DefaultHygienePoints * streak,
			Ago:       RelativeTime(entry.Timestamp, now),
		}
	}
	return out
}

// DaysRemaining is ceil((end-now)/1 day). Zero or negative means ended.
func DaysRemaining(end, now time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}
