package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"storefront_pay/internal/services"
	"storefront_pay/web/templates/pages"
)

// PaymentHandler serves the storefront checkout and the gateway callback
type PaymentHandler struct {
	payments    *services.PaymentService
	serverURL   string
	frontendURL string
	logger      *slog.Logger
}

func NewPaymentHandler(payments *services.PaymentService, serverURL, frontendURL string, logger *slog.Logger) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{
		payments:    payments,
		serverURL:   serverURL,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

type initiateRequest struct {
	Amount        json.Number `json:"amount" form:"amount"`
	CustomerName  string      `json:"customerName" form:"customerName"`
	CustomerEmail string      `json:"customerEmail" form:"customerEmail"`
	CustomerPhone string      `json:"customerPhone" form:"customerPhone"`
}

type initiateResponse struct {
	Success bool `json:"success"`
	*services.InitiateResult
}

// Initiate starts a checkout and returns the URL of our redirect page
func (h *PaymentHandler) Initiate(c echo.Context) error {
	var req initiateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request body.")
	}

	baseURL := h.serverURL
	if baseURL == "" {
		baseURL = c.Scheme() + "://" + c.Request().Host
	}

	res, err := h.payments.Initiate(c.Request().Context(), services.InitiateRequest{
		Amount:        req.Amount.String(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
	}, baseURL)
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return badRequest(verr.Message)
	}
	if err != nil {
		return fmt.Errorf("initiate payment: %w", err)
	}

	return c.JSON(http.StatusOK, initiateResponse{Success: true, InitiateResult: res})
}

// Redirect serves the one-shot auto-submitting form toward the gateway
func (h *PaymentHandler) Redirect(c echo.Context) error {
	form, err := h.payments.ServeRedirect(c.Request().Context(), c.Param("orderId"))
	if errors.Is(err, services.ErrSessionNotFound) {
		return render(c, http.StatusNotFound, pages.SessionExpired(h.frontendURL+"/checkout"))
	}
	if err != nil {
		return fmt.Errorf("load payment session: %w", err)
	}
	return render(c, http.StatusOK, pages.RedirectForm(pages.RedirectFormProps{
		Action: form.Action,
		Fields: form.Fields,
	}))
}

// Callback receives the gateway's post-payment notification and sends the customer
// to the storefront result page
func (h *PaymentHandler) Callback(c echo.Context) error {
	params, err := callbackParams(c)
	if err != nil {
		return badRequest("Invalid callback payload.")
	}

	outcome, err := h.payments.HandleCallback(c.Request().Context(), params)
	if err != nil {
		return fmt.Errorf("handle callback: %w", err)
	}

	h.logger.Info("callback routed", "order_id", outcome.OrderID, "outcome", outcome.Status)
	return c.Redirect(http.StatusFound, h.frontendURL+"/payment-result?"+outcome.Query().Encode())
}

// callbackParams flattens a form-encoded or JSON callback body into string values
func callbackParams(c echo.Context) (map[string]string, error) {
	params := make(map[string]string)

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var body map[string]json.RawMessage
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
			return nil, err
		}
		for k, raw := range body {
			value, err := jsonParamValue(raw)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", k, err)
			}
			params[k] = value
		}
		return params, nil
	}

	form, err := c.FormParams()
	if err != nil {
		return nil, err
	}
	for k, v := range form {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params, nil
}

// jsonParamValue keeps non-string literals exactly as sent, so 1000.00 still
// verifies against a signature computed over "1000.00"
func jsonParamValue(raw json.RawMessage) (string, error) {
	literal := strings.TrimSpace(string(raw))
	switch {
	case literal == "null":
		return "", nil
	case strings.HasPrefix(literal, `"`):
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return literal, nil
}

// Status proxies the gateway's authoritative status for an order
func (h *PaymentHandler) Status(c echo.Context) error {
	res, err := h.payments.Status(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		h.logger.Error("transaction status check failed", "order_id", c.Param("orderId"), "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to check transaction status.")
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: res.Raw})
}
