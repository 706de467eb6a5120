// services/chain.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Action is one of the five contract entry points.
type Action string

const (
	ActionJoin        Action = "join"
	ActionLogShower   Action = "logShower"
	ActionSlash       Action = "slash"
	ActionRewardClean Action = "rewardClean"
	ActionExit        Action = "exit"
)

// JoinStake is attached to every join call: 0.01 ether in wei.
var JoinStake = big.NewInt(10_000_000_000_000_000)

// contractABI is the fixed surface of the hygiene contract.
const contractABI = `[
	{"type":"function","name":"join","inputs":[],"outputs":[],"stateMutability":"payable"},
	{"type":"function","name":"logShower","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"slash","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"slashLazy","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"rewardClean","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"exit","inputs":[],"outputs":[],"stateMutability":"nonpayable"}
]`

// TxSender submits a transaction through the user's wallet.
type TxSender interface {
	SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error)
}

// ReceiptSource looks up mined receipts. *ethclient.Client satisfies it.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// ChainInvoker is what the orchestrator calls.
type ChainInvoker interface {
	Invoke(ctx context.Context, action Action, session WalletSession) (*types.Receipt, error)
}

type ChainOptions struct {
	SlashMethod    string
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	Logger         *slog.Logger
}

// ChainClient invokes contract actions and blocks until they are mined.
type ChainClient struct {
	Sender   TxSender
	Receipts ReceiptSource
	Contract common.Address

	slashMethod    string
	confirmTimeout time.Duration
	pollInterval   time.Duration
	abi            abi.ABI
	logger         *slog.Logger
}

func NewChainClient(sender TxSender, receipts ReceiptSource, contract common.Address, opts ChainOptions) (*ChainClient, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	c := &ChainClient{
		Sender:         sender,
		Receipts:       receipts,
		Contract:       contract,
		slashMethod:    opts.SlashMethod,
		confirmTimeout: opts.ConfirmTimeout,
		pollInterval:   opts.PollInterval,
		abi:            parsed,
		logger:         opts.Logger,
	}
	if c.slashMethod == "" {
		c.slashMethod = "slash"
	}
	if _, ok := parsed.Methods[c.slashMethod]; !ok {
		return nil, fmt.Errorf("unknown slash method %q", c.slashMethod)
	}
	if c.confirmTimeout <= 0 {
		c.confirmTimeout = 2 * time.Minute
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 2 * time.Second
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// method resolves an action to its contract entry point.
func (c *ChainClient) method(action Action) (string, error) {
	switch action {
	case ActionJoin, ActionLogShower, ActionRewardClean, ActionExit:
		return string(action), nil
	case ActionSlash:
		return c.slashMethod, nil
	default:
		return "", fmt.Errorf("unknown chain action %q", action)
	}
}

// Invoke sends the action from the session address and waits for the receipt.
// Rejections, reverts and timeouts come back as *ChainError. Never retries.
func (c *ChainClient) Invoke(ctx context.Context, action Action, session WalletSession) (*types.Receipt, error) {
	method, err := c.method(action)
	if err != nil {
		return nil, &ChainError{Action: action, Reason: err.Error(), Err: err}
	}
	data, err := c.abi.Pack(method)
	if err != nil {
		return nil, &ChainError{Action: action, Reason: err.Error(), Err: err}
	}

	value := new(big.Int)
	if action == ActionJoin {
		value.Set(JoinStake)
	}

	start := time.Now()
	hash, err := c.Sender.SendTransaction(ctx, session.Address, c.Contract, value, data)
	if err != nil {
		chainInvocations.WithLabelValues(string(action), "rejected").Inc()
		return nil, &ChainError{Action: action, Reason: err.Error(), Err: err}
	}
	c.logger.Info("transaction sent",
		slog.String("action", string(action)),
		slog.String("from", session.Address.Hex()),
		slog.String("tx", hash.Hex()),
	)

	receipt, err := c.waitMined(ctx, hash)
	chainConfirmSeconds.WithLabelValues(string(action)).Observe(time.Since(start).Seconds())
	if err != nil {
		chainInvocations.WithLabelValues(string(action), "timeout").Inc()
		return nil, &ChainError{Action: action, TxHash: hash.Hex(), Reason: err.Error(), Err: err}
	}
	if receipt.Status == types.ReceiptStatusFailed {
		chainInvocations.WithLabelValues(string(action), "reverted").Inc()
		return receipt, &ChainError{Action: action, TxHash: hash.Hex(), Reason: "transaction reverted"}
	}
	chainInvocations.WithLabelValues(string(action), "confirmed").Inc()
	return receipt, nil
}

func (c *ChainClient) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.Receipts.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			c.logger.Warn("receipt lookup failed", slog.String("tx", hash.Hex()), slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrConfirmTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// NoChain stands in when no wallet provider is configured.
type NoChain struct{}

func (NoChain) Invoke(_ context.Context, action Action, _ WalletSession) (*types.Receipt, error) {
	return nil, &ChainError{Action: action, Reason: ErrNoProvider.Error(), Err: ErrNoProvider}
}
