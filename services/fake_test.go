package services

import (
	"context"
	"math/big"
	"sync"
	"time"

	"proof-of-hygiene/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ------------------------
// Fake shower ledger
// ------------------------

type FakeShowerLedger struct {
	trace []string

	InsertShowerLogFunc func(ctx context.Context, userID string) (*models.ShowerLog, error)
}

func (f *FakeShowerLedger) InsertShowerLog(ctx context.Context, userID string) (*models.ShowerLog, error) {
	f.trace = append(f.trace, "InsertShowerLog")
	if f.InsertShowerLogFunc != nil {
		return f.InsertShowerLogFunc(ctx, userID)
	}
	return &models.ShowerLog{
		ID:            "log-1",
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
		HygienePoints: models.DefaultHygienePoints,
	}, nil
}

func (f *FakeShowerLedger) Trace() []string { return f.trace }

// ------------------------
// Fake chain
// ------------------------

type FakeChain struct {
	mu      sync.Mutex
	actions []Action

	InvokeFunc func(ctx context.Context, action Action, session WalletSession) (*types.Receipt, error)
}

func (f *FakeChain) Invoke(ctx context.Context, action Action, session WalletSession) (*types.Receipt, error) {
	f.mu.Lock()
	f.actions = append(f.actions, action)
	f.mu.Unlock()
	if f.InvokeFunc != nil {
		return f.InvokeFunc(ctx, action, session)
	}
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0xabc"),
		BlockNumber: big.NewInt(7),
	}, nil
}

func (f *FakeChain) Calls() []Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Action(nil), f.actions...)
}

// ------------------------
// Fake chain action store
// ------------------------

type FakeChainActionStore struct {
	mu      sync.Mutex
	Records []models.ChainAction

	RecordChainActionFunc func(ctx context.Context, a *models.ChainAction) error
}

func (f *FakeChainActionStore) RecordChainAction(ctx context.Context, a *models.ChainAction) error {
	if f.RecordChainActionFunc != nil {
		return f.RecordChainActionFunc(ctx, a)
	}
	f.mu.Lock()
	f.Records = append(f.Records, *a)
	f.mu.Unlock()
	return nil
}

func (f *FakeChainActionStore) UpdateChainAction(ctx context.Context, id string, updates map[string]any) error {
	return nil
}

func (f *FakeChainActionStore) ListChainActions(ctx context.Context, q Query) ([]models.ChainAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ChainAction(nil), f.Records...), nil
}

// ------------------------
// Fake notifier
// ------------------------

type FakeNotifier struct {
	mu   sync.Mutex
	Sent map[string][]Notification
}

func (f *FakeNotifier) Publish(userID string, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Sent == nil {
		f.Sent = make(map[string][]Notification)
	}
	f.Sent[userID] = append(f.Sent[userID], n)
}

// ------------------------
// Fake read side
// ------------------------

type FakeLeaderboardReader struct {
	Profiles []models.Profile
	Counts   map[string]int64
	Last     map[string]time.Time
	Logs     []models.ShowerLog

	ListProfilesErr error
	CountErr        error

	mu          sync.Mutex
	countCalls  int
	lastCalls   int
	lastQueries []Query
}

func (f *FakeLeaderboardReader) ListProfiles(ctx context.Context, q Query) ([]models.Profile, error) {
	f.mu.Lock()
	f.lastQueries = append(f.lastQueries, q)
	f.mu.Unlock()
	if f.ListProfilesErr != nil {
		return nil, f.ListProfilesErr
	}
	out := f.Profiles
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *FakeLeaderboardReader) CountShowerLogs(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	f.countCalls++
	f.mu.Unlock()
	if f.CountErr != nil {
		return 0, f.CountErr
	}
	return f.Counts[userID], nil
}

func (f *FakeLeaderboardReader) LastShowerAt(ctx context.Context, userID string) (*time.Time, error) {
	f.mu.Lock()
	f.lastCalls++
	f.mu.Unlock()
	ts, ok := f.Last[userID]
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

func (f *FakeLeaderboardReader) ListShowerLogs(ctx context.Context, q Query) ([]models.ShowerLog, error) {
	f.mu.Lock()
	f.lastQueries = append(f.lastQueries, q)
	f.mu.Unlock()
	return f.Logs, nil
}

func (f *FakeLeaderboardReader) RecentShowers(ctx context.Context, limit int) ([]models.ShowerLog, error) {
	if len(f.Logs) > limit {
		return f.Logs[:limit], nil
	}
	return f.Logs, nil
}

// ------------------------
// Fake game ledger
// ------------------------

type FakeGameLedger struct {
	Games        map[string]models.Game
	Participants map[string][]models.GameParticipant
	Created      []models.Game

	SettleEndedGamesFunc func(ctx context.Context, now time.Time) (int, error)
}

func NewFakeGameLedger() *FakeGameLedger {
	return &FakeGameLedger{
		Games:        map[string]models.Game{},
		Participants: map[string][]models.GameParticipant{},
	}
}

func (f *FakeGameLedger) CreateGame(ctx context.Context, g *models.Game) error {
	f.Created = append(f.Created, *g)
	f.Games[g.ID] = *g
	return nil
}

func (f *FakeGameLedger) GetGame(ctx context.Context, id string) (*models.Game, error) {
	g, ok := f.Games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (f *FakeGameLedger) ListGames(ctx context.Context, q Query) ([]models.Game, error) {
	out := make([]models.Game, 0, len(f.Games))
	for _, g := range f.Games {
		out = append(out, g)
	}
	return out, nil
}

// InsertGameParticipant mimics the unique (game_id, user_id) index.
func (f *FakeGameLedger) InsertGameParticipant(ctx context.Context, gameID, userID string) (*models.GameParticipant, error) {
	for _, p := range f.Participants[gameID] {
		if p.UserID == userID {
			return nil, ErrDuplicate
		}
	}
	p := models.GameParticipant{ID: "p-" + userID, GameID: gameID, UserID: userID, Status: models.ParticipantActive}
	f.Participants[gameID] = append(f.Participants[gameID], p)
	return &p, nil
}

func (f *FakeGameLedger) ListParticipants(ctx context.Context, gameID string) ([]models.GameParticipant, error) {
	return f.Participants[gameID], nil
}

func (f *FakeGameLedger) CountParticipants(ctx context.Context, gameID string) (int64, error) {
	return int64(len(f.Participants[gameID])), nil
}

func (f *FakeGameLedger) SettleEndedGames(ctx context.Context, now time.Time) (int, error) {
	if f.SettleEndedGamesFunc != nil {
		return f.SettleEndedGamesFunc(ctx, now)
	}
	return 0, nil
}

// ------------------------
// Fake profile store
// ------------------------

type FakeProfileStore struct {
	Accounts map[string]models.Account // by email
	Profiles map[string]models.Profile // by id
}

func NewFakeProfileStore() *FakeProfileStore {
	return &FakeProfileStore{Accounts: map[string]models.Account{}, Profiles: map[string]models.Profile{}}
}

func (f *FakeProfileStore) CreateAccount(ctx context.Context, account *models.Account, profile *models.Profile) error {
	if _, ok := f.Accounts[account.Email]; ok {
		return ErrDuplicate
	}
	f.Accounts[account.Email] = *account
	f.Profiles[profile.ID] = *profile
	return nil
}

func (f *FakeProfileStore) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	a, ok := f.Accounts[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (f *FakeProfileStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, ok := f.Profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (f *FakeProfileStore) UpdateProfile(ctx context.Context, id string, updates map[string]any) (*models.Profile, error) {
	p, ok := f.Profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	if v, ok := updates["username"].(string); ok {
		p.Username = &v
	}
	if v, ok := updates["avatar_url"].(string); ok {
		p.AvatarURL = &v
	}
	f.Profiles[id] = p
	return &p, nil
}

// ------------------------
// Fake wallet / node
// ------------------------

type FakeWalletProvider struct {
	Addresses []common.Address
	Err       error
	calls     int
}

func (f *FakeWalletProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	f.calls++
	return f.Addresses, f.Err
}

func (f *FakeWalletProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	f.calls++
	return f.Addresses, f.Err
}

type sentTx struct {
	From, To common.Address
	Value    *big.Int
	Data     []byte
}

type FakeTxSender struct {
	Sent []sentTx
	Hash common.Hash
	Err  error
}

func (f *FakeTxSender) SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	f.Sent = append(f.Sent, sentTx{From: from, To: to, Value: new(big.Int).Set(value), Data: data})
	return f.Hash, f.Err
}

// FakeReceipts answers NotFound for the first Pending lookups.
type FakeReceipts struct {
	Pending int
	Receipt *types.Receipt
	Err     error
	lookups int
}

func (f *FakeReceipts) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.lookups++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.lookups <= f.Pending {
		return nil, ethereum.NotFound
	}
	return f.Receipt, nil
}

// syncSpawn runs best-effort work inline so tests can assert on it.
func syncSpawn(name string, fn func() error) { _ = fn() }
