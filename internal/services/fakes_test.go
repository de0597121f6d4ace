package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

type fakeGateway struct {
	mu sync.Mutex

	statuses  map[string]string
	statusErr error

	settlement    *SettlementResult
	settlementErr error

	statusCalls     int
	settlementCalls []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string]string)}
}

func (g *fakeGateway) setStatus(orderID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[orderID] = status
}

func (g *fakeGateway) TransactionStatus(_ context.Context, orderID string) (*StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCalls++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	body := StatusBody{
		OrderID:    orderID,
		TxnID:      "GW_" + orderID,
		ResultInfo: ResultInfo{ResultStatus: g.statuses[orderID], ResultMsg: "status " + g.statuses[orderID]},
	}
	raw, _ := json.Marshal(map[string]any{"body": body})
	return &StatusResult{Body: body, Raw: raw}, nil
}

func (g *fakeGateway) RequestSettlement(_ context.Context, orderID string) (*SettlementResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.settlementCalls = append(g.settlementCalls, orderID)
	if g.settlementErr != nil {
		return nil, g.settlementErr
	}
	if g.settlement != nil {
		return g.settlement, nil
	}
	return &SettlementResult{ResultInfo: ResultInfo{ResultStatus: "SUCCESS"}, Raw: json.RawMessage(`{"status":"SUCCESS"}`)}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
