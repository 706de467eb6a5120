package services

import (
	"testing"
	"time"

	"proof-of-hygiene/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"zero", 0, "0 minutes ago"},
		{"thirty seconds rounds up", 30 * time.Second, "1 minute ago"},
		{"ninety seconds rounds to two", 90 * time.Second, "2 minutes ago"},
		{"just under an hour", 45 * time.Minute, "45 minutes ago"},
		{"sixty one minutes", 61 * time.Minute, "1 hour ago"},
		{"ninety minutes rounds to two hours", 90 * time.Minute, "2 hours ago"},
		{"twenty three hours", 23 * time.Hour, "23 hours ago"},
		{"one day", 24 * time.Hour, "1 day ago"},
		{"thirty six hours rounds to two days", 36 * time.Hour, "2 days ago"},
		{"future clamps to zero", -5 * time.Minute, "0 minutes ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.elapsed), now))
		})
	}
}

func TestRelativeTimeGranularity(t *testing.T) {
	now := time.Now()
	for d := time.Duration(0); d < 72*time.Hour; d += 7 * time.Minute {
		got := RelativeTime(now.Add(-d), now)
		switch {
		case d < time.Hour:
			assert.Contains(t, got, "minute", d.String())
		case d < 24*time.Hour:
			assert.Contains(t, got, "hour", d.String())
		default:
			assert.Contains(t, got, "day", d.String())
		}
	}
}

func TestLastShowerLabel(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "Never", LastShowerLabel(nil, now))

	last := now.Add(-2 * time.Hour)
	assert.Equal(t, "2 hours ago", LastShowerLabel(&last, now))
}

func TestClassifyTier(t *testing.T) {
	assert.Equal(t, TierBronze, ClassifyTier(0))
	assert.Equal(t, TierBronze, ClassifyTier(4))
	assert.Equal(t, TierSilver, ClassifyTier(5))
	assert.Equal(t, TierSilver, ClassifyTier(9))
	assert.Equal(t, TierGold, ClassifyTier(10))
	assert.Equal(t, "🥇", ClassifyTier(100).Emoji)

	rank := map[string]int{"bronze": 0, "silver": 1, "gold": 2}
	prev := 0
	for n := int64(0); n <= 20; n++ {
		r := rank[ClassifyTier(n).Name]
		assert.GreaterOrEqual(t, r, prev, "tier must not decrease at %d", n)
		prev = r
	}
}

func TestAssignStreaks(t *testing.T) {
	now := time.Now()
	logs := []models.ShowerLog{
		{ID: "newest", Timestamp: now.Add(-1 * time.Hour)},
		{ID: "middle", Timestamp: now.Add(-30 * time.Hour)},
		{ID: "oldest", Timestamp: now.Add(-24 * 30 * time.Hour)},
	}

	entries := AssignStreaks(logs, now)
	require.Len(t, entries, 3)

	assert.Equal(t, "newest", entries[0].ID)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Streak, entries[1].Streak, entries[2].Streak})
	assert.Equal(t, []int{10, 20, 30}, []int{entries[0].Points, entries[1].Points, entries[2].Points})
	assert.Equal(t, "1 hour ago", entries[0].Ago)
}

func TestAssignStreaksEmpty(t *testing.T) {
	assert.Empty(t, AssignStreaks(nil, time.Now()))
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 3, DaysRemaining(now.Add(72*time.Hour), now))
	assert.Equal(t, 3, DaysRemaining(now.Add(49*time.Hour), now), "partial days round up")
	assert.Equal(t, 1, DaysRemaining(now.Add(time.Minute), now))
	assert.Equal(t, 0, DaysRemaining(now, now))
	assert.Less(t, DaysRemaining(now.Add(-24*time.Hour), now), 0)
}
