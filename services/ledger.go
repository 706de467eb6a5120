// services/ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proof-of-hygiene/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// Query composes filter / order / limit over one table. Column names come
// from code, never from request input.
type Query struct {
	Filters map[string]any
	OrderBy string
	Desc    bool
	Limit   int
}

func (q Query) scope(db *gorm.DB) *gorm.DB {
	if len(q.Filters) > 0 {
		db = db.Where(q.Filters)
	}
	if q.OrderBy != "" {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy}, Desc: q.Desc})
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	return db
}

// ShowerLedger is what the dual-write orchestrator needs from the ledger.
type ShowerLedger interface {
	InsertShowerLog(ctx context.Context, userID string) (*models.ShowerLog, error)
}

// LeaderboardReader is the read side used by the leaderboard and history views.
type LeaderboardReader interface {
	ListProfiles(ctx context.Context, q Query) ([]models.Profile, error)
	CountShowerLogs(ctx context.Context, userID string) (int64, error)
	LastShowerAt(ctx context.Context, userID string) (*time.Time, error)
	ListShowerLogs(ctx context.Context, q Query) ([]models.ShowerLog, error)
	RecentShowers(ctx context.Context, limit int) ([]models.ShowerLog, error)
}

// GameLedger covers games and their participants.
type GameLedger interface {
	CreateGame(ctx context.Context, g *models.Game) error
	GetGame(ctx context.Context, id string) (*models.Game, error)
	ListGames(ctx context.Context, q Query) ([]models.Game, error)
	InsertGameParticipant(ctx context.Context, gameID, userID string) (*models.GameParticipant, error)
	ListParticipants(ctx context.Context, gameID string) ([]models.GameParticipant, error)
	CountParticipants(ctx context.Context, gameID string) (int64, error)
	SettleEndedGames(ctx context.Context, now time.Time) (int, error)
}

// ChainActionStore keeps the audit trail of contract invocations.
type ChainActionStore interface {
	RecordChainAction(ctx context.Context, a *models.ChainAction) error
	UpdateChainAction(ctx context.Context, id string, updates map[string]any) error
	ListChainActions(ctx context.Context, q Query) ([]models.ChainAction, error)
}

// ProfileStore covers accounts and profiles.
type ProfileStore interface {
	CreateAccount(ctx context.Context, account *models.Account, profile *models.Profile) error
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, updates map[string]any) (*models.Profile, error)
}

// Ledger is the gorm-backed store for profiles, shower logs, games and participants.
type Ledger struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db, Now: time.Now}
}

// Migrate creates or updates every ledger table.
func (l *Ledger) Migrate() error {
	return l.DB.AutoMigrate(
		&models.Profile{},
		&models.Account{},
		&models.ShowerLog{},
		&models.Game{},
		&models.GameParticipant{},
		&models.ChainAction{},
	)
}

// ledgerErr converts a gorm/pgx failure into the service error taxonomy.
func ledgerErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("ledger %s: %w", op, ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("ledger %s: %w", op, ErrDuplicate)
	default:
		return &LedgerError{Op: op, Err: err}
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// --- profiles ---

func (l *Ledger) CreateAccount(ctx context.Context, account *models.Account, profile *models.Profile) error {
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		return tx.Create(profile).Error
	})
	return ledgerErr("create_account", err)
}

func (l *Ledger) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := l.DB.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, ledgerErr("find_account", err)
	}
	return &account, nil
}

func (l *Ledger) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := l.DB.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, ledgerErr("get_profile", err)
	}
	return &profile, nil
}

func (l *Ledger) UpdateProfile(ctx context.Context, id string, updates map[string]any) (*models.Profile, error) {
	res := l.DB.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, ledgerErr("update_profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ledgerErr("update_profile", gorm.ErrRecordNotFound)
	}
	return l.GetProfile(ctx, id)
}

func (l *Ledger) ListProfiles(ctx context.Context, q Query) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := q.scope(l.DB.WithContext(ctx).Model(&models.Profile{})).Find(&profiles).Error; err != nil {
		return nil, ledgerErr("list_profiles", err)
	}
	return profiles, nil
}

// --- shower logs ---

// InsertShowerLog appends one log row. In the same transaction the stored
// hygiene_score and the score of every running participation are bumped.
func (l *Ledger) InsertShowerLog(ctx context.Context, userID string) (*models.ShowerLog, error) {
	now := l.Now().UTC()
	entry := models.ShowerLog{
		ID:            uuid.NewString(),
		UserID:        userID,
		Timestamp:     now,
		HygienePoints: models.DefaultHygienePoints,
	}

	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Profile{}).
			Where("id = ?", userID).
			Update("hygiene_score", gorm.Expr("hygiene_score + ?", entry.HygienePoints)).Error; err != nil {
			return err
		}
		running := tx.Model(&models.Game{}).Select("id").
			Where("start_date <= ? AND end_date > ?", now, now)
		return tx.Model(&models.GameParticipant{}).
			Where("user_id = ? AND status = ? AND game_id IN (?)", userID, models.ParticipantActive, running).
			Update("score", gorm.Expr("score + ?", entry.HygienePoints)).Error
	})
	if err != nil {
		return nil, ledgerErr("insert_shower_log", err)
	}
	if err := entry.Validate(); err != nil {
		return nil, ledgerErr("insert_shower_log", err)
	}
	return &entry, nil
}

func (l *Ledger) ListShowerLogs(ctx context.Context, q Query) ([]models.ShowerLog, error) {
	var logs []models.ShowerLog
	if err := q.scope(l.DB.WithContext(ctx).Model(&models.ShowerLog{})).Find(&logs).Error; err != nil {
		return nil, ledgerErr("list_shower_logs", err)
	}
	for _, entry := range logs {
		if err := entry.Validate(); err != nil {
			return nil, ledgerErr("list_shower_logs", err)
		}
	}
	return logs, nil
}

func (l *Ledger) CountShowerLogs(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := l.DB.WithContext(ctx).Model(&models.ShowerLog{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, ledgerErr("count_shower_logs", err)
	}
	return count, nil
}

// LastShowerAt returns nil when the user never logged a shower.
func (l *Ledger) LastShowerAt(ctx context.Context, userID string) (*time.Time, error) {
	logs, err := l.ListShowerLogs(ctx, Query{
		Filters: map[string]any{"user_id": userID},
		OrderBy: "timestamp",
		Desc:    true,
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	ts := logs[0].Timestamp
	return &ts, nil
}

// RecentShowers is the global feed, newest first, with the owning profile.
func (l *Ledger) RecentShowers(ctx context.Context, limit int) ([]models.ShowerLog, error) {
	var logs []models.ShowerLog
	err := l.DB.WithContext(ctx).
		Preload("Profile").
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, ledgerErr("recent_showers", err)
	}
	return logs, nil
}

// --- games ---

func (l *Ledger) CreateGame(ctx context.Context, g *models.Game) error {
	return ledgerErr("create_game", l.DB.WithContext(ctx).Create(g).Error)
}

func (l *Ledger) GetGame(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	if err := l.DB.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, ledgerErr("get_game", err)
	}
	return &game, nil
}

func (l *Ledger) ListGames(ctx context.Context, q Query) ([]models.Game, error) {
	var games []models.Game
	if err := q.scope(l.DB.WithContext(ctx).Model(&models.Game{})).Find(&games).Error; err != nil {
		return nil, ledgerErr("list_games", err)
	}
	return games, nil
}

// InsertGameParticipant relies on the (game_id, user_id) unique index; a second
// join surfaces as ErrDuplicate, never as a silent merge.
func (l *Ledger) InsertGameParticipant(ctx context.Context, gameID, userID string) (*models.GameParticipant, error) {
	p := models.GameParticipant{
		ID:       uuid.NewString(),
		GameID:   gameID,
		UserID:   userID,
		JoinDate: l.Now().UTC(),
		Status:   models.ParticipantActive,
	}
	if err := l.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, ledgerErr("insert_game_participant", err)
	}
	return &p, nil
}

func (l *Ledger) ListParticipants(ctx context.Context, gameID string) ([]models.GameParticipant, error) {
	var participants []models.GameParticipant
	err := l.DB.WithContext(ctx).
		Preload("Profile").
		Where("game_id = ?", gameID).
		Order("score DESC").
		Order("join_date ASC").
		Find(&participants).Error
	if err != nil {
		return nil, ledgerErr("list_participants", err)
	}
	return participants, nil
}

func (l *Ledger) CountParticipants(ctx context.Context, gameID string) (int64, error) {
	var count int64
	if err := l.DB.WithContext(ctx).Model(&models.GameParticipant{}).Where("game_id = ?", gameID).Count(&count).Error; err != nil {
		return 0, ledgerErr("count_participants", err)
	}
	return count, nil
}

// SettleEndedGames marks the top scorer(s) of every ended, unsettled game as
// winner and the remaining active seats as eliminated. Returns games settled.
func (l *Ledger) SettleEndedGames(ctx context.Context, now time.Time) (int, error) {
	var ended []models.Game
	if err := l.DB.WithContext(ctx).
		Where("end_date <= ? AND settled_at IS NULL", now).
		Find(&ended).Error; err != nil {
		return 0, ledgerErr("settle_games", err)
	}

	settled := 0
	for _, g := range ended {
		err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var top struct{ Max *int }
			if err := tx.Model(&models.GameParticipant{}).
				Select("MAX(score) AS max").
				Where("game_id = ? AND status = ?", g.ID, models.ParticipantActive).
				Scan(&top).Error; err != nil {
				return err
			}
			if top.Max != nil {
				if err := tx.Model(&models.GameParticipant{}).
					Where("game_id = ? AND status = ? AND score = ?", g.ID, models.ParticipantActive, *top.Max).
					Update("status", models.ParticipantWinner).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.GameParticipant{}).
					Where("game_id = ? AND status = ?", g.ID, models.ParticipantActive).
					Update("status", models.ParticipantEliminated).Error; err != nil {
					return err
				}
			}
			return tx.Model(&models.Game{}).Where("id = ?", g.ID).Update("settled_at", now).Error
		})
		if err != nil {
			return settled, ledgerErr("settle_games", err)
		}
		settled++
	}
	return settled, nil
}

// --- chain actions ---

func (l *Ledger) RecordChainAction(ctx context.Context, a *models.ChainAction) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return ledgerErr("record_chain_action", l.DB.WithContext(ctx).Create(a).Error)
}

func (l *Ledger) UpdateChainAction(ctx context.Context, id string, updates map[string]any) error {
	err := l.DB.WithContext(ctx).Model(&models.ChainAction{}).Where("id = ?", id).Updates(updates).Error
	return ledgerErr("update_chain_action", err)
}

func (l *Ledger) ListChainActions(ctx context.Context, q Query) ([]models.ChainAction, error) {
	var actions []models.ChainAction
	if err := q.scope(l.DB.WithContext(ctx).Model(&models.ChainAction{})).Find(&actions).Error; err != nil {
		return nil, ledgerErr("list_chain_actions", err)
	}
	return actions, nil
}
