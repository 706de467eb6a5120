// services/hygiene_service.go
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"proof-of-hygiene/models"

	"github.com/ethereum/go-ethereum/core/types"
)

// Result is what every orchestrated action reports. Err keeps the classified
// failure for the HTTP layer; it is never returned as a Go error.
type Result struct {
	OK           bool              `json:"ok"`
	Notification Notification      `json:"notification"`
	ShowerLog    *models.ShowerLog `json:"shower_log,omitempty"`
	TxHash       string            `json:"tx_hash,omitempty"`
	Err          error             `json:"-"`
}

// Warning reports a partial success.
func (r Result) Warning() bool { return r.OK && r.Notification.Level == LevelWarning }

var actionFailureMessages = map[Action]string{
	ActionJoin:        "Failed to join room",
	ActionSlash:       "Failed to slash user",
	ActionRewardClean: "Failed to reward cleanliness",
	ActionExit:        "Failed to exit room",
}

var actionSuccessMessages = map[Action]string{
	ActionJoin:        "Joined successfully!",
	ActionSlash:       "User slashed",
	ActionRewardClean: "Cleanliness rewarded",
	ActionExit:        "Exited room",
}

// HygieneService sequences ledger and chain writes for one user action.
type HygieneService struct {
	Ledger   ShowerLedger
	Chain    ChainInvoker
	Audit    ChainActionStore // optional
	Notifier Notifier         // optional
	Logger   *slog.Logger

	// spawn runs fire-and-forget side effects.
	spawn func(name string, fn func() error)
}

func NewHygieneService(ledger ShowerLedger, chain ChainInvoker, audit ChainActionStore, notifier Notifier, logger *slog.Logger) *HygieneService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HygieneService{
		Ledger:   ledger,
		Chain:    chain,
		Audit:    audit,
		Notifier: notifier,
		Logger:   logger,
		spawn:    goBestEffort,
	}
}

// LogShower writes the ledger first and the chain second. A ledger failure
// aborts before the chain is touched; a chain failure after a ledger success
// still reports OK with a warning. Nothing is rolled back.
func (s *HygieneService) LogShower(ctx context.Context, session *Session, wallet *WalletSession) Result {
	if session == nil {
		showerWrites.WithLabelValues("not_signed_in").Inc()
		return s.fail(nil, ErrNotSignedIn, "Please sign in to log a shower")
	}

	entry, err := s.Ledger.InsertShowerLog(ctx, session.UserID)
	if err != nil {
		s.Logger.Error("log shower: ledger write failed", slog.String("user_id", session.UserID), slog.Any("error", err))
		showerWrites.WithLabelValues("ledger_failed").Inc()
		return s.fail(session, err, "Shower verification failed")
	}

	if wallet == nil {
		showerWrites.WithLabelValues("wallet_required").Inc()
		res := s.fail(session, ErrWalletRequired, "Connect a wallet to verify your shower on-chain")
		res.ShowerLog = entry
		return res
	}

	receipt, err := s.invoke(ctx, session, *wallet, ActionLogShower)
	if err != nil {
		s.Logger.Warn("log shower: chain write failed after ledger write",
			slog.String("user_id", session.UserID),
			slog.String("shower_log_id", entry.ID),
			slog.Any("error", err),
		)
		showerWrites.WithLabelValues("partial").Inc()
		return Result{
			OK:           true,
			Notification: s.notify(session, LevelWarning, withReason("Logged to database but blockchain update failed", err)),
			ShowerLog:    entry,
			TxHash:       txHashOf(err),
			Err:          err,
		}
	}

	showerWrites.WithLabelValues("verified").Inc()
	return Result{
		OK:           true,
		Notification: s.notify(session, LevelSuccess, "Shower verified on blockchain! 🚿✨"),
		ShowerLog:    entry,
		TxHash:       receipt.TxHash.Hex(),
	}
}

func (s *HygieneService) Join(ctx context.Context, session *Session, wallet *WalletSession) Result {
	return s.runChainAction(ctx, session, wallet, ActionJoin)
}

func (s *HygieneService) Slash(ctx context.Context, session *Session, wallet *WalletSession) Result {
	return s.runChainAction(ctx, session, wallet, ActionSlash)
}

func (s *HygieneService) RewardClean(ctx context.Context, session *Session, wallet *WalletSession) Result {
	return s.runChainAction(ctx, session, wallet, ActionRewardClean)
}

func (s *HygieneService) Exit(ctx context.Context, session *Session, wallet *WalletSession) Result {
	return s.runChainAction(ctx, session, wallet, ActionExit)
}

// runChainAction is requireWallet → invoke → Result.
func (s *HygieneService) runChainAction(ctx context.Context, session *Session, wallet *WalletSession, action Action) Result {
	if session == nil {
		return s.fail(nil, ErrNotSignedIn, "Please sign in first")
	}
	if wallet == nil {
		return s.fail(session, ErrWalletRequired, actionFailureMessages[action]+": connect a wallet first")
	}

	receipt, err := s.invoke(ctx, session, *wallet, action)
	if err != nil {
		s.Logger.Error("chain action failed",
			slog.String("action", string(action)),
			slog.String("user_id", session.UserID),
			slog.Any("error", err),
		)
		res := s.fail(session, err, withReason(actionFailureMessages[action], err))
		res.TxHash = txHashOf(err)
		return res
	}
	return Result{
		OK:           true,
		Notification: s.notify(session, LevelSuccess, actionSuccessMessages[action]),
		TxHash:       receipt.TxHash.Hex(),
	}
}

// invoke calls the chain and records the attempt as a best-effort audit row.
func (s *HygieneService) invoke(ctx context.Context, session *Session, wallet WalletSession, action Action) (*types.Receipt, error) {
	receipt, err := s.Chain.Invoke(ctx, action, wallet)
	s.audit(session.UserID, wallet, action, receipt, err)
	return receipt, err
}

func (s *HygieneService) audit(userID string, wallet WalletSession, action Action, receipt *types.Receipt, err error) {
	if s.Audit == nil {
		return
	}
	row := &models.ChainAction{
		UserID:  userID,
		Action:  string(action),
		Address: wallet.Address.Hex(),
		Status:  models.ChainActionConfirmed,
	}
	if receipt != nil {
		hash := receipt.TxHash.Hex()
		row.TxHash = &hash
		if receipt.BlockNumber != nil {
			block := receipt.BlockNumber.Uint64()
			row.BlockNumber = &block
		}
	}
	if err != nil {
		row.Status = models.ChainActionFailed
		row.Error = err.Error()
		if hash := txHashOf(err); hash != "" {
			row.TxHash = &hash
			// Sent but not seen to revert: it may still be mined.
			reverted := receipt != nil && receipt.Status == types.ReceiptStatusFailed
			if !reverted {
				row.Status = models.ChainActionPending
			}
		}
	}

	s.spawn("record chain action", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Audit.RecordChainAction(ctx, row)
	})
}

// withReason appends the chain's own failure message when there is one.
func withReason(message string, err error) string {
	var chainErr *ChainError
	if errors.As(err, &chainErr) && chainErr.Message() != "" {
		return message + ": " + chainErr.Message()
	}
	return message
}

func txHashOf(err error) string {
	var chainErr *ChainError
	if errors.As(err, &chainErr) {
		return chainErr.TxHash
	}
	return ""
}

func (s *HygieneService) fail(session *Session, err error, message string) Result {
	var n Notification
	if session != nil {
		n = s.notify(session, LevelError, message)
	} else {
		n = Notification{Level: LevelError, Message: message, At: time.Now().UTC()}
	}
	return Result{OK: false, Notification: n, Err: err}
}

// notify builds the notification and pushes it to live streams without
// waiting on delivery.
func (s *HygieneService) notify(session *Session, level Level, message string) Notification {
	n := Notification{Level: level, Message: message, At: time.Now().UTC()}
	if s.Notifier != nil {
		userID := session.UserID
		s.spawn("publish notification", func() error {
			s.Notifier.Publish(userID, n)
			return nil
		})
	}
	return n
}
