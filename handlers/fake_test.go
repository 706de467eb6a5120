package handlers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"proof-of-hygiene/models"
	"proof-of-hygiene/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

// memLedger is an in-memory stand-in for the gorm ledger.
type memLedger struct {
	mu           sync.Mutex
	accounts     map[string]models.Account
	profiles     map[string]models.Profile
	logs         []models.ShowerLog
	games        map[string]models.Game
	participants map[string][]models.GameParticipant
	actions      []models.ChainAction

	insertErr error
}

func newMemLedger() *memLedger {
	return &memLedger{
		accounts:     map[string]models.Account{},
		profiles:     map[string]models.Profile{},
		games:        map[string]models.Game{},
		participants: map[string][]models.GameParticipant{},
	}
}

func (m *memLedger) CreateAccount(ctx context.Context, a *models.Account, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.Email]; ok {
		return services.ErrDuplicate
	}
	m.accounts[a.Email] = *a
	m.profiles[p.ID] = *p
	return nil
}

func (m *memLedger) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &a, nil
}

func (m *memLedger) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &p, nil
}

func (m *memLedger) UpdateProfile(ctx context.Context, id string, updates map[string]any) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	if v, ok := updates["username"].(string); ok {
		p.Username = &v
	}
	m.profiles[id] = p
	return &p, nil
}

func (m *memLedger) ListProfiles(ctx context.Context, q services.Query) ([]models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HygieneScore > out[j].HygieneScore })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memLedger) InsertShowerLog(ctx context.Context, userID string) (*models.ShowerLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	entry := models.ShowerLog{ID: uuid.NewString(), UserID: userID, Timestamp: time.Now().UTC(), HygienePoints: models.DefaultHygienePoints}
	m.logs = append(m.logs, entry)
	p := m.profiles[userID]
	p.HygieneScore += entry.HygienePoints
	m.profiles[userID] = p
	return &entry, nil
}

func (m *memLedger) userLogs(userID string) []models.ShowerLog {
	var out []models.ShowerLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].UserID == userID {
			out = append(out, m.logs[i])
		}
	}
	return out
}

func (m *memLedger) ListShowerLogs(ctx context.Context, q services.Query) ([]models.ShowerLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, _ := q.Filters["user_id"].(string)
	return m.userLogs(userID), nil
}

func (m *memLedger) CountShowerLogs(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.userLogs(userID))), nil
}

func (m *memLedger) LastShowerAt(ctx context.Context, userID string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	logs := m.userLogs(userID)
	if len(logs) == 0 {
		return nil, nil
	}
	ts := logs[0].Timestamp
	return &ts, nil
}

func (m *memLedger) RecentShowers(ctx context.Context, limit int) ([]models.ShowerLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ShowerLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

func (m *memLedger) CreateGame(ctx context.Context, g *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = *g
	return nil
}

func (m *memLedger) GetGame(ctx context.Context, id string) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &g, nil
}

func (m *memLedger) ListGames(ctx context.Context, q services.Query) ([]models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Game
	for _, g := range m.games {
		out = append(out, g)
	}
	return out, nil
}

func (m *memLedger) InsertGameParticipant(ctx context.Context, gameID, userID string) (*models.GameParticipant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participants[gameID] {
		if p.UserID == userID {
			return nil, services.ErrDuplicate
		}
	}
	p := models.GameParticipant{ID: uuid.NewString(), GameID: gameID, UserID: userID, JoinDate: time.Now().UTC(), Status: models.ParticipantActive}
	m.participants[gameID] = append(m.participants[gameID], p)
	return &p, nil
}

func (m *memLedger) ListParticipants(ctx context.Context, gameID string) ([]models.GameParticipant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.GameParticipant(nil), m.participants[gameID]...), nil
}

func (m *memLedger) CountParticipants(ctx context.Context, gameID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.participants[gameID])), nil
}

func (m *memLedger) SettleEndedGames(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (m *memLedger) RecordChainAction(ctx context.Context, a *models.ChainAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, *a)
	return nil
}

func (m *memLedger) UpdateChainAction(ctx context.Context, id string, updates map[string]any) error {
	return nil
}

func (m *memLedger) ListChainActions(ctx context.Context, q services.Query) ([]models.ChainAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ChainAction(nil), m.actions...), nil
}

type fakeProvider struct{ addr common.Address }

func (f fakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{f.addr}, nil
}

func (f fakeProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{f.addr}, nil
}

type fakeChain struct {
	mu    sync.Mutex
	err   error
	calls []services.Action
}

func (f *fakeChain) Invoke(ctx context.Context, action services.Action, ws services.WalletSession) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, action)
	if f.err != nil {
		return nil, f.err
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: common.HexToHash("0xbeef")}, nil
}

var errChainDown = errors.New("execution reverted")
