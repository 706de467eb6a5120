// services/leaderboard.go
package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const LeaderboardSize = 5

type LeaderboardEntry struct {
	Rank          int        `json:"rank"`
	UserID        string     `json:"user_id"`
	DisplayName   string     `json:"display_name"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	HygieneScore  int        `json:"hygiene_score"`
	Showers       int64      `json:"showers"`
	LastShower    *time.Time `json:"last_shower,omitempty"`
	LastShowerAgo string     `json:"last_shower_ago"`
	Tier          Tier       `json:"tier"`
}

type LeaderboardService struct {
	Ledger LeaderboardReader
	Logger *slog.Logger
	Now    func() time.Time
}

func NewLeaderboardService(ledger LeaderboardReader, logger *slog.Logger) *LeaderboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardService{Ledger: ledger, Logger: logger, Now: time.Now}
}

// Top ranks profiles by stored hygiene_score and, for each, fetches the shower
// count and last timestamp concurrently. The two reads per profile are
// independent snapshots and may disagree.
func (s *LeaderboardService) Top(ctx context.Context) ([]LeaderboardEntry, error) {
	profiles, err := s.Ledger.ListProfiles(ctx, Query{OrderBy: "hygiene_score", Desc: true, Limit: LeaderboardSize})
	if err != nil {
		s.Logger.Error("leaderboard profiles", slog.Any("error", err))
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range profiles {
		entries[i] = LeaderboardEntry{
			Rank:         i + 1,
			UserID:       p.ID,
			DisplayName:  p.DisplayName(),
			AvatarURL:    p.AvatarURL,
			HygieneScore: p.HygieneScore,
		}
		g.Go(func() error {
			count, err := s.Ledger.CountShowerLogs(gctx, p.ID)
			if err != nil {
				return err
			}
			entries[i].Showers = count
			entries[i].Tier = ClassifyTier(count)
			return nil
		})
		g.Go(func() error {
			last, err := s.Ledger.LastShowerAt(gctx, p.ID)
			if err != nil {
				return err
			}
			entries[i].LastShower = last
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.Logger.Error("leaderboard lookups", slog.Any("error", err))
		return nil, err
	}

	now := s.Now()
	for i := range entries {
		entries[i].LastShowerAgo = LastShowerLabel(entries[i].LastShower, now)
	}
	return entries, nil
}
