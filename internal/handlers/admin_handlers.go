package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront_pay/internal/models"
	"storefront_pay/internal/services"
)

// AdminHandler serves the dashboard API
type AdminHandler struct {
	ledger      services.TransactionStore
	payments    *services.PaymentService
	settlements *services.SettlementService
	logger      *slog.Logger
}

func NewAdminHandler(ledger services.TransactionStore, payments *services.PaymentService, settlements *services.SettlementService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{ledger: ledger, payments: payments, settlements: settlements, logger: logger}
}

func (h *AdminHandler) Summary(c echo.Context) error {
	summary, err := h.settlements.Summary(c.Request().Context())
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// ListTransactions returns the ledger newest first, optionally filtered by ?status=
func (h *AdminHandler) ListTransactions(c echo.Context) error {
	filter, ok := services.ParseTransactionFilter(c.QueryParam("status"))
	if !ok {
		return badRequest("Unknown status filter.")
	}

	txns, err := h.ledger.List(c.Request().Context(), filter)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: txns})
}

func (h *AdminHandler) GetTransaction(c echo.Context) error {
	txn, err := h.ledger.Get(c.Request().Context(), c.Param("orderId"))
	if errors.Is(err, services.ErrTransactionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, services.MsgNotFound)
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: txn})
}

type settlementResponse struct {
	Success bool                      `json:"success"`
	Results []services.SettlementItem `json:"results"`
}

func bindOrderIDs(c echo.Context) ([]string, error) {
	var req orderIDsRequest
	if err := c.Bind(&req); err != nil || len(req.OrderIDs) == 0 {
		return nil, badRequest("Provide an array of orderIds.")
	}
	return req.OrderIDs, nil
}

// RequestSettlement reports one result per requested id, in request order
func (h *AdminHandler) RequestSettlement(c echo.Context) error {
	ids, err := bindOrderIDs(c)
	if err != nil {
		return err
	}
	results, err := h.settlements.RequestSettlement(c.Request().Context(), ids)
	if err != nil {
		return fmt.Errorf("request settlement: %w", err)
	}
	return c.JSON(http.StatusOK, settlementResponse{Success: true, Results: results})
}

// MarkSettled records payouts made outside the gateway. A result with success=false
// means the order is unknown or has not reached TXN_SUCCESS.
func (h *AdminHandler) MarkSettled(c echo.Context) error {
	ids, err := bindOrderIDs(c)
	if err != nil {
		return err
	}
	results, err := h.settlements.MarkSettled(c.Request().Context(), ids)
	if err != nil {
		return fmt.Errorf("mark settled: %w", err)
	}
	return c.JSON(http.StatusOK, settlementResponse{Success: true, Results: results})
}

type refreshResponse struct {
	Success bool                `json:"success"`
	Data    interface{}         `json:"data"`
	Stored  *models.Transaction `json:"stored"`
}

// RefreshStatus re-queries the gateway and stores the authoritative status
func (h *AdminHandler) RefreshStatus(c echo.Context) error {
	orderID := c.Param("orderId")
	txn, res, err := h.payments.Refresh(c.Request().Context(), orderID)
	switch {
	case errors.Is(err, services.ErrTransactionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, services.MsgNotFound)
	case errors.Is(err, services.ErrGatewayUnavailable), errors.Is(err, services.ErrInvalidGatewayResponse):
		h.logger.Error("refresh status failed", "order_id", orderID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to refresh status.")
	case err != nil:
		return fmt.Errorf("refresh status: %w", err)
	}
	return c.JSON(http.StatusOK, refreshResponse{Success: true, Data: res.Raw, Stored: txn})
}
