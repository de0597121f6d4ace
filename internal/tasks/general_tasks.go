package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"storefront_pay/internal/services"
)

// SummaryReader is the read side of the settlement coordinator
type SummaryReader interface {
	Summary(ctx context.Context) (services.Summary, error)
}

// LogSummaryTaskDef writes the ledger summary to the log
type LogSummaryTaskDef struct {
	reader SummaryReader
	logger *slog.Logger
}

func NewLogSummaryTask(reader SummaryReader, logger *slog.Logger) *LogSummaryTaskDef {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSummaryTaskDef{reader: reader, logger: logger}
}

// TaskID returns the unique identifier for this task
func (t *LogSummaryTaskDef) TaskID() string {
	return "log_summary"
}

func (t *LogSummaryTaskDef) HandleExecution(ctx context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	s, err := t.reader.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute summary: %w", err)
	}

	t.logger.Info("ledger summary",
		"total", s.TotalTransactions,
		"successful", s.SuccessfulPayments,
		"pending", s.PendingPayments,
		"failed", s.FailedPayments,
		"revenue", s.TotalRevenue.StringFixed(2),
		"unsettled_amount", s.UnsettledAmount.StringFixed(2),
		"unsettled", s.UnsettledCount,
		"settlement_requested", s.SettlementRequestedCount,
		"settled", s.SettledCount,
	)

	return map[string]interface{}{
		"status":           "success",
		"total":            s.TotalTransactions,
		"revenue":          s.TotalRevenue.StringFixed(2),
		"unsettled_amount": s.UnsettledAmount.StringFixed(2),
		"unsettled":        s.UnsettledCount,
	}, nil
}
