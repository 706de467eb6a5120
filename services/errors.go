// services/errors.go
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProvider is returned when no wallet provider is configured. No network call is made.
	ErrNoProvider = errors.New("no wallet provider available")
	// ErrNotSignedIn is returned when an action needs a session and none was given.
	ErrNotSignedIn = errors.New("please sign in first")
	// ErrWalletRequired is returned when a chain-bound action has no connected wallet.
	ErrWalletRequired = errors.New("connect a wallet first")
	// ErrDuplicate marks a unique-constraint violation in the ledger.
	ErrDuplicate = errors.New("record already exists")
	// ErrNotFound marks a missing ledger row.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrGameEnded rejects joins once a game's window has closed.
	ErrGameEnded = errors.New("game has ended")
	// ErrConfirmTimeout means the transaction was sent but no receipt arrived in time.
	ErrConfirmTimeout = errors.New("timed out waiting for confirmation")
)

// LedgerError wraps a failed ledger call. Op names the primitive that failed.
type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }

// ChainError wraps a rejected, reverted or timed out contract call.
// Message keeps the underlying reason for display.
type ChainError struct {
	Action Action
	TxHash string
	Reason string
	Err    error
}

func (e *ChainError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("chain %s (tx %s): %s", e.Action, e.TxHash, e.Reason)
	}
	return fmt.Sprintf("chain %s: %s", e.Action, e.Reason)
}

func (e *ChainError) Unwrap() error { return e.Err }

// Message is the text shown to the user.
func (e *ChainError) Message() string { return e.Reason }
