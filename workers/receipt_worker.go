// workers/receipt_worker.go
package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"proof-of-hygiene/models"
	"proof-of-hygiene/services"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	receiptBatchSize = 50

	// DefaultMaxPendingAge is how long a sent transaction may stay unmined
	// before its row is marked failed.
	DefaultMaxPendingAge = 24 * time.Hour
)

// ReceiptReconciler settles audit rows left pending by a confirmation timeout.
// It only observes receipts; it never resends a transaction.
type ReceiptReconciler struct {
	Store         services.ChainActionStore
	Receipts      services.ReceiptSource
	MaxPendingAge time.Duration
	Now           func() time.Time
}

func NewReceiptReconciler(store services.ChainActionStore, receipts services.ReceiptSource) *ReceiptReconciler {
	return &ReceiptReconciler{Store: store, Receipts: receipts, MaxPendingAge: DefaultMaxPendingAge, Now: time.Now}
}

// ReconcileOnce checks the least recently checked pending rows and returns how
// many were settled. Rows still unmined are touched so the next batch moves on.
func (r *ReceiptReconciler) ReconcileOnce(ctx context.Context) (int, error) {
	pending, err := r.Store.ListChainActions(ctx, services.Query{
		Filters: map[string]any{"status": models.ChainActionPending},
		OrderBy: "updated_at",
		Limit:   receiptBatchSize,
	})
	if err != nil {
		return 0, err
	}

	now := r.Now().UTC()
	settled := 0
	for _, action := range pending {
		updates, err := r.check(ctx, action, now)
		if err != nil {
			log.Printf("❌ receipt lookup for %s: %v", action.ID, err)
			updates = map[string]any{"updated_at": now}
		}
		if err := r.Store.UpdateChainAction(ctx, action.ID, updates); err != nil {
			log.Printf("❌ update chain action %s: %v", action.ID, err)
			continue
		}
		if updates["status"] != nil {
			settled++
		}
	}
	return settled, nil
}

// check returns the row update for one pending action. A row without a final
// outcome only gets its updated_at bumped.
func (r *ReceiptReconciler) check(ctx context.Context, action models.ChainAction, now time.Time) (map[string]any, error) {
	if action.TxHash == nil {
		return map[string]any{"status": models.ChainActionFailed, "error": "no transaction hash", "updated_at": now}, nil
	}

	receipt, err := r.Receipts.TransactionReceipt(ctx, common.HexToHash(*action.TxHash))
	if errors.Is(err, ethereum.NotFound) {
		if r.MaxPendingAge > 0 && now.Sub(action.CreatedAt) > r.MaxPendingAge {
			return map[string]any{"status": models.ChainActionFailed, "error": "not mined", "updated_at": now}, nil
		}
		return map[string]any{"updated_at": now}, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"status": models.ChainActionConfirmed, "error": "", "updated_at": now}
	if receipt.Status == types.ReceiptStatusFailed {
		updates["status"] = models.ChainActionFailed
		updates["error"] = "transaction reverted"
	}
	if receipt.BlockNumber != nil {
		updates["block_number"] = receipt.BlockNumber.Uint64()
	}
	return updates, nil
}

// PollReceipts runs ReconcileOnce on every tick until ctx is cancelled.
func PollReceipts(ctx context.Context, r *ReceiptReconciler, pollInterval time.Duration) {
	log.Println("Starting receipt reconciler...")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Receipt reconciler stopped.")
			return
		case <-ticker.C:
			n, err := r.ReconcileOnce(ctx)
			if err != nil {
				log.Printf("❌ Error reconciling receipts: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("📥 Settled %d pending chain action(s).", n)
			}
		}
	}
}
