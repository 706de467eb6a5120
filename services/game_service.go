// services/game_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"proof-of-hygiene/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type GameService struct {
	Ledger GameLedger
	Logger *slog.Logger
	Now    func() time.Time
}

func NewGameService(ledger GameLedger, logger *slog.Logger) *GameService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameService{Ledger: ledger, Logger: logger, Now: time.Now}
}

type CreateGameInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	PrizePool   string          `json:"prize_pool"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	GameType    models.GameType `json:"game_type"`
}

// GameView adds the derived countdown to a stored game.
type GameView struct {
	models.Game
	DaysRemaining    int   `json:"days_remaining"`
	Ended            bool  `json:"ended"`
	ParticipantCount int64 `json:"participant_count"`
}

func (s *GameService) view(ctx context.Context, g models.Game) (GameView, error) {
	count, err := s.Ledger.CountParticipants(ctx, g.ID)
	if err != nil {
		return GameView{}, err
	}
	days := DaysRemaining(g.EndDate, s.Now())
	return GameView{Game: g, DaysRemaining: days, Ended: days <= 0, ParticipantCount: count}, nil
}

// CreateGame lets any signed-in user open a game. Games are immutable afterwards.
func (s *GameService) CreateGame(ctx context.Context, session *Session, in CreateGameInput) (*models.Game, error) {
	if session == nil {
		return nil, ErrNotSignedIn
	}
	if strings.TrimSpace(in.PrizePool) == "" {
		in.PrizePool = "0"
	}
	game := models.Game{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		PrizePool:   strings.TrimSpace(in.PrizePool),
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		GameType:    in.GameType,
		CreatedBy:   session.UserID,
	}
	if err := game.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	game.Slug = fmt.Sprintf("%s-%s", slug.Make(game.Name), game.ID[:8])

	if err := s.Ledger.CreateGame(ctx, &game); err != nil {
		s.Logger.Error("create game", slog.String("name", game.Name), slog.Any("error", err))
		return nil, err
	}
	s.Logger.Info("game created", slog.String("game_id", game.ID), slog.String("slug", game.Slug))
	return &game, nil
}

func (s *GameService) ListGames(ctx context.Context) ([]GameView, error) {
	games, err := s.Ledger.ListGames(ctx, Query{OrderBy: "start_date", Desc: true})
	if err != nil {
		return nil, err
	}
	views := make([]GameView, 0, len(games))
	for _, g := range games {
		v, err := s.view(ctx, g)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *GameService) GetGame(ctx context.Context, id string) (*GameView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("game %q: %w", id, ErrNotFound)
	}
	g, err := s.Ledger.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	v, err := s.view(ctx, *g)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// JoinGame inserts the seat and lets the unique index reject a second join.
func (s *GameService) JoinGame(ctx context.Context, session *Session, gameID string) (*models.GameParticipant, error) {
	if session == nil {
		return nil, ErrNotSignedIn
	}
	view, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if view.Ended {
		return nil, ErrGameEnded
	}
	p, err := s.Ledger.InsertGameParticipant(ctx, gameID, session.UserID)
	if err != nil {
		s.Logger.Warn("join game", slog.String("game_id", gameID), slog.String("user_id", session.UserID), slog.Any("error", err))
		return nil, err
	}
	return p, nil
}

func (s *GameService) Participants(ctx context.Context, gameID string) ([]models.GameParticipant, error) {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return s.Ledger.ListParticipants(ctx, gameID)
}
