package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"storefront_pay/internal/models"
	"storefront_pay/internal/services"
)

// StatusRefresher pulls the authoritative status of an order into the ledger
type StatusRefresher interface {
	Refresh(ctx context.Context, orderID string) (*models.Transaction, *services.StatusResult, error)
}

// ReconcilePendingTaskDef refreshes orders stuck in INITIATED or PENDING
type ReconcilePendingTaskDef struct {
	ledger    services.TransactionStore
	refresher StatusRefresher
	minAge    time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func NewReconcilePendingTask(ledger services.TransactionStore, refresher StatusRefresher, minAge time.Duration, logger *slog.Logger) *ReconcilePendingTaskDef {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcilePendingTaskDef{
		ledger:    ledger,
		refresher: refresher,
		minAge:    minAge,
		batchSize: 100,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// TaskID returns the unique identifier for this task
func (t *ReconcilePendingTaskDef) TaskID() string {
	return "reconcile_pending"
}

// HandleExecution refreshes each stale order. Per-order failures are counted, they never
// stop the batch. The "limit" argument overrides the batch size.
func (t *ReconcilePendingTaskDef) HandleExecution(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	limit := t.batchSize
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	} else if v, ok := args["limit"].(int); ok && v > 0 {
		limit = v
	}

	stale, err := t.ledger.ListStale(ctx, t.now().Add(-t.minAge), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale transactions: %w", err)
	}

	var resolved, failed int
	for _, txn := range stale {
		if ctx.Err() != nil {
			break
		}
		updated, _, err := t.refresher.Refresh(ctx, txn.OrderID)
		if err != nil {
			failed++
			t.logger.Warn("reconcile refresh failed", "order_id", txn.OrderID, "error", err)
			continue
		}
		if updated.PaymentStatus != txn.PaymentStatus {
			resolved++
		}
	}

	return map[string]interface{}{
		"status":   "success",
		"checked":  len(stale),
		"resolved": resolved,
		"failed":   failed,
	}, nil
}
