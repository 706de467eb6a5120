// services/profile_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"proof-of-hygiene/models"

	"github.com/google/uuid"
)

const (
	HistoryLimit       = 50
	RecentShowersLimit = 10
	MaxAvatarBytes     = 2 * 1024 * 1024
)

var (
	ErrAvatarStorageDisabled = errors.New("avatar storage is not configured")
	ErrAvatarTooLarge        = errors.New("avatar must be 2MB or smaller")
)

// AvatarUploader stores an image and returns its public URL. *utils.R2Store satisfies it.
type AvatarUploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type ProfileService struct {
	Store   ProfileStore
	Showers LeaderboardReader
	Avatars AvatarUploader // nil when storage is disabled
	Logger  *slog.Logger
	Now     func() time.Time
}

func NewProfileService(store ProfileStore, showers LeaderboardReader, avatars AvatarUploader, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{Store: store, Showers: showers, Avatars: avatars, Logger: logger, Now: time.Now}
}

type ProfileView struct {
	models.Profile
	DisplayName   string     `json:"display_name"`
	Showers       int64      `json:"showers"`
	Tier          Tier       `json:"tier"`
	LastShower    *time.Time `json:"last_shower,omitempty"`
	LastShowerAgo string     `json:"last_shower_ago"`
}

func (s *ProfileService) Me(ctx context.Context, session *Session) (*ProfileView, error) {
	if session == nil {
		return nil, ErrNotSignedIn
	}
	profile, err := s.Store.GetProfile(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	count, err := s.Showers.CountShowerLogs(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	last, err := s.Showers.LastShowerAt(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{
		Profile:       *profile,
		DisplayName:   profile.DisplayName(),
		Showers:       count,
		Tier:          ClassifyTier(count),
		LastShower:    last,
		LastShowerAgo: LastShowerLabel(last, s.Now()),
	}, nil
}

// History returns the user's logs newest-first with streak and points.
func (s *ProfileService) History(ctx context.Context, session *Session) ([]HistoryEntry, error) {
	if session == nil {
		return nil, ErrNotSignedIn
	}
	logs, err := s.Showers.ListShowerLogs(ctx, Query{
		Filters: map[string]any{"user_id": session.UserID},
		OrderBy: "timestamp",
		Desc:    true,
		Limit:   HistoryLimit,
	})
	if err != nil {
		return nil, err
	}
	return AssignStreaks(logs, s.Now()), nil
}

type LastShowerView struct {
	LastShower *time.Time `json:"last_shower,omitempty"`
	Ago        string     `json:"ago"`
}

func (s *ProfileService) LastShower(ctx context.Context, session *Session) (*LastShowerView, error) {
	if session == nil {
		return nil, ErrNotSignedIn
	}
	last, err := s.Showers.LastShowerAt(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return &LastShowerView{LastShower: last, Ago: LastShowerLabel(last, s.Now())}, nil
}

type RecentShower struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Ago          string    `json:"ago"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	HygieneScore int       `json:"hygiene_score"`
}

// RecentShowers is the public feed of the latest logs across all users.
func (s *ProfileService) RecentShowers(ctx context.Context) ([]RecentShower, error) {
	logs, err := s.Showers.RecentShowers(ctx, RecentShowersLimit)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	out := make([]RecentShower, 0, len(logs))
	for _, entry := range logs {
		item := RecentShower{ID: entry.ID, Timestamp: entry.Timestamp, Ago: RelativeTime(entry.Timestamp, now)}
		if entry.Profile != nil {
			item.DisplayName = entry.Profile.DisplayName()
			item.AvatarURL = entry.Profile.AvatarURL
			item.HygieneScore = entry.Profile.HygieneScore
		}
		out = append(out, item)
	}
	return out, nil
}

// UpdateUsername sets a new unique username.
func (s *ProfileService) UpdateUsername(ctx context.Context, session *Session, raw string) (*models.Profile, error) {
	if session == nil {
		return nil, ErrNotSignedIn
	}
	name, err := models.NormalizeUsername(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.Store.UpdateProfile(ctx, session.UserID, map[string]any{"username": name})
}

// SetAvatar uploads the image and points the profile at it.
func (s *ProfileService) SetAvatar(ctx context.Context, session *Session, filename, contentType string, body io.Reader) (*models.Profile, error) {
	if session == nil {
		return nil, ErrNotSignedIn
	}
	if s.Avatars == nil {
		return nil, ErrAvatarStorageDisabled
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: avatar must be an image", ErrInvalidInput)
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxAvatarBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if len(data) > MaxAvatarBytes {
		return nil, ErrAvatarTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	key := fmt.Sprintf("avatars/%s/%s%s", session.UserID, uuid.NewString(), ext)
	url, err := s.Avatars.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		s.Logger.Error("avatar upload", slog.String("user_id", session.UserID), slog.Any("error", err))
		return nil, err
	}
	return s.Store.UpdateProfile(ctx, session.UserID, map[string]any{"avatar_url": url})
}
