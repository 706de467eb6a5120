// services/wallet.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// WalletSession is a user-authorized chain account. Held in memory only.
type WalletSession struct {
	Address     common.Address `json:"address"`
	ConnectedAt time.Time      `json:"connected_at"`
}

// WalletProvider is the wallet-side JSON-RPC surface.
type WalletProvider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	Accounts(ctx context.Context) ([]common.Address, error)
}

// RPCWallet talks to a wallet endpoint that signs on behalf of its accounts.
type RPCWallet struct {
	client *rpc.Client
}

func DialWallet(ctx context.Context, url string) (*RPCWallet, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial wallet %s: %w", url, err)
	}
	return &RPCWallet{client: client}, nil
}

// Client exposes the underlying connection so the chain client can share it.
func (w *RPCWallet) Client() *rpc.Client { return w.client }

func (w *RPCWallet) Close() { w.client.Close() }

func (w *RPCWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	err := w.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	return accounts, err
}

func (w *RPCWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	err := w.client.CallContext(ctx, &accounts, "eth_accounts")
	return accounts, err
}

type sendTxArgs struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value"`
	Data  hexutil.Bytes  `json:"data"`
}

func (w *RPCWallet) SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	var hash common.Hash
	args := sendTxArgs{From: from, To: to, Value: (*hexutil.Big)(value), Data: data}
	err := w.client.CallContext(ctx, &hash, "eth_sendTransaction", args)
	return hash, err
}

// WalletConnector obtains an authorized account from the provider.
type WalletConnector struct {
	Provider WalletProvider
	Now      func() time.Time
}

// NewWalletConnector accepts a nil provider; Connect then fails with ErrNoProvider.
func NewWalletConnector(provider WalletProvider) *WalletConnector {
	return &WalletConnector{Provider: provider, Now: time.Now}
}

// Connect asks the provider for accounts and returns the first one. No retries.
func (w *WalletConnector) Connect(ctx context.Context) (WalletSession, error) {
	if w.Provider == nil {
		return WalletSession{}, ErrNoProvider
	}
	accounts, err := w.Provider.RequestAccounts(ctx)
	if err != nil {
		return WalletSession{}, fmt.Errorf("eth_requestAccounts: %w", err)
	}
	if len(accounts) == 0 {
		return WalletSession{}, errors.New("wallet returned no accounts")
	}
	return WalletSession{Address: accounts[0], ConnectedAt: w.Now().UTC()}, nil
}

// IsConnected reports whether the provider already exposes an account.
// A missing provider is simply "not connected".
func (w *WalletConnector) IsConnected(ctx context.Context) (bool, error) {
	if w.Provider == nil {
		return false, nil
	}
	accounts, err := w.Provider.Accounts(ctx)
	if err != nil {
		return false, fmt.Errorf("eth_accounts: %w", err)
	}
	return len(accounts) > 0, nil
}

// WalletRegistry holds each signed-in user's wallet session.
type WalletRegistry struct {
	mu       sync.RWMutex
	sessions map[string]WalletSession
}

func NewWalletRegistry() *WalletRegistry {
	return &WalletRegistry{sessions: make(map[string]WalletSession)}
}

func (r *WalletRegistry) Put(userID string, ws WalletSession) {
	r.mu.Lock()
	r.sessions[userID] = ws
	r.mu.Unlock()
}

func (r *WalletRegistry) Get(userID string) (WalletSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.sessions[userID]
	return ws, ok
}

func (r *WalletRegistry) Remove(userID string) {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()
}
