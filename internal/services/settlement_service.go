package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"storefront_pay/internal/models"
)

const (
	MsgNotFound          = "Transaction not found."
	MsgNotSettleable     = "Only successful transactions can be settled."
	MsgAlreadySettled    = "Already settled."
	MsgSettlementOK      = "Settlement requested."
	MsgSettlementQueued  = "Settlement request submitted. The gateway will process it in the next settlement cycle."
	MsgSettlementFailing = "Settlement marked as requested. Will be processed in next settlement cycle."
	MsgMarkedSettled     = "Marked as settled."
)

var (
	errNotSettleable  = errors.New("not settleable")
	errAlreadySettled = errors.New("already settled")
)

// SettlementItem is the per-order line of a bulk settlement report
type SettlementItem struct {
	OrderID string `json:"orderId"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SettlementService runs the administrative payout workflow over the ledger
type SettlementService struct {
	ledger      TransactionStore
	gateway     Gateway
	logger      *slog.Logger
	now         func() time.Time
	concurrency int
}

func NewSettlementService(ledger TransactionStore, gateway Gateway, logger *slog.Logger) *SettlementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementService{
		ledger:      ledger,
		gateway:     gateway,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		concurrency: 4,
	}
}

// RequestSettlement asks the gateway to settle every eligible order. Eligible orders are
// marked settlement_requested whether or not the gateway accepted. Only a ledger failure
// aborts the batch. An id repeated in the batch is sent to the gateway once and every
// position reports that outcome.
func (s *SettlementService) RequestSettlement(ctx context.Context, orderIDs []string) ([]SettlementItem, error) {
	unique := make([]string, 0, len(orderIDs))
	seen := make(map[string]int, len(orderIDs))
	for _, orderID := range orderIDs {
		if _, ok := seen[orderID]; !ok {
			seen[orderID] = len(unique)
			unique = append(unique, orderID)
		}
	}

	items := make([]SettlementItem, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, orderID := range unique {
		i, orderID := i, orderID
		g.Go(func() error {
			item, err := s.requestOne(gctx, orderID)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]SettlementItem, len(orderIDs))
	for i, orderID := range orderIDs {
		results[i] = items[seen[orderID]]
	}
	return results, nil
}

func (s *SettlementService) requestOne(ctx context.Context, orderID string) (SettlementItem, error) {
	item := SettlementItem{OrderID: orderID}

	txn, err := s.ledger.Get(ctx, orderID)
	if errors.Is(err, ErrTransactionNotFound) {
		item.Message = MsgNotFound
		return item, nil
	}
	if err != nil {
		return item, err
	}
	if msg, ok := settlementRejection(txn); !ok {
		item.Message = msg
		return item, nil
	}

	res, gwErr := s.gateway.RequestSettlement(ctx, orderID)

	now := s.now()
	_, err = s.ledger.Update(ctx, orderID, func(t *models.Transaction) error {
		if !t.Settleable() {
			return errNotSettleable
		}
		if t.SettlementStatus == models.SettlementStatusSettled {
			return errAlreadySettled
		}
		requested := now
		t.SettlementStatus = models.SettlementStatusRequested
		t.SettlementRequestedAt = &requested
		if res != nil && len(res.Raw) > 0 {
			t.SettlementResponse = datatypes.JSON(res.Raw)
		}
		return nil
	})
	switch {
	case errors.Is(err, errNotSettleable):
		item.Message = MsgNotSettleable
		return item, nil
	case errors.Is(err, errAlreadySettled):
		item.Message = MsgAlreadySettled
		return item, nil
	case err != nil:
		return item, fmt.Errorf("failed to mark %s as settlement requested: %w", orderID, err)
	}

	item.Success = true
	switch {
	case gwErr != nil:
		s.logger.Warn("settlement request failed, marked as requested", "order_id", orderID, "error", gwErr)
		item.Message = fmt.Sprintf("%s (%v)", MsgSettlementFailing, gwErr)
	case res.Accepted():
		s.logger.Info("settlement requested", "order_id", orderID)
		item.Message = MsgSettlementOK
	default:
		s.logger.Info("settlement not acknowledged, marked as requested",
			"order_id", orderID,
			"result_status", res.ResultInfo.ResultStatus,
		)
		item.Message = res.ResultInfo.ResultMsg
		if item.Message == "" {
			item.Message = MsgSettlementQueued
		}
	}
	return item, nil
}

func settlementRejection(txn *models.Transaction) (string, bool) {
	if !txn.Settleable() {
		return MsgNotSettleable, false
	}
	if txn.SettlementStatus == models.SettlementStatusSettled {
		return MsgAlreadySettled, false
	}
	return "", true
}

// MarkSettled records a payout confirmed outside the system. Orders that never succeeded
// stay unsettled and are reported as rejected.
func (s *SettlementService) MarkSettled(ctx context.Context, orderIDs []string) ([]SettlementItem, error) {
	results := make([]SettlementItem, 0, len(orderIDs))
	for _, orderID := range orderIDs {
		item := SettlementItem{OrderID: orderID}
		now := s.now()
		_, err := s.ledger.Update(ctx, orderID, func(t *models.Transaction) error {
			if !t.Settleable() {
				return errNotSettleable
			}
			settled := now
			t.SettlementStatus = models.SettlementStatusSettled
			t.SettledAt = &settled
			return nil
		})
		switch {
		case errors.Is(err, ErrTransactionNotFound):
			item.Message = MsgNotFound
		case errors.Is(err, errNotSettleable):
			item.Message = MsgNotSettleable
		case err != nil:
			return nil, fmt.Errorf("failed to mark %s as settled: %w", orderID, err)
		default:
			item.Success = true
			item.Message = MsgMarkedSettled
			s.logger.Info("marked as settled", "order_id", orderID)
		}
		results = append(results, item)
	}
	return results, nil
}

// Summary aggregates the ledger afresh
func (s *SettlementService) Summary(ctx context.Context) (Summary, error) {
	return s.ledger.Summary(ctx)
}
