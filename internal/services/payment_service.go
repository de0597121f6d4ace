package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"storefront_pay/internal/config"
	"storefront_pay/internal/models"
)

var ErrValidation = errors.New("validation failed")

// ValidationError carries a message safe to show the customer
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Result page statuses the storefront understands
const (
	OutcomeSuccess = "success"
	OutcomePending = "pending"
	OutcomeFailed  = "failed"
)

const (
	ReasonChecksumFailed = "checksum_failed"
	ReasonUnknownOrder   = "unknown_order"
	defaultFailureReason = "Payment failed or cancelled"
	msgRequiredFields    = "Amount, customer name, and phone are required."
)

// InitiateRequest is the checkout data captured from the storefront
type InitiateRequest struct {
	Amount        string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// InitiateResult points the storefront at our own redirect page
type InitiateResult struct {
	OrderID    string `json:"orderId"`
	Amount     string `json:"amount"`
	PaymentURL string `json:"paymentUrl"`
}

// RedirectForm is the one-shot auto-submitting form handed to the browser
type RedirectForm struct {
	OrderID string
	Action  string
	Fields  map[string]string
}

// CallbackOutcome decides which result view the customer lands on
type CallbackOutcome struct {
	Status  string
	OrderID string
	TxnID   string
	Amount  string
	Reason  string
}

// Query renders the outcome as result page query parameters
func (o CallbackOutcome) Query() url.Values {
	q := url.Values{}
	q.Set("status", o.Status)
	if o.OrderID != "" {
		q.Set("orderId", o.OrderID)
	}
	if o.Status == OutcomeFailed {
		q.Set("reason", o.Reason)
		return q
	}
	q.Set("txnId", o.TxnID)
	q.Set("amount", o.Amount)
	return q
}

// PaymentService drives an order from initiation through callback reconciliation
type PaymentService struct {
	gatewayCfg config.Gateway
	apiPrefix  string
	sessionTTL time.Duration
	fallback   string

	signer   *Signer
	ledger   TransactionStore
	sessions SessionCache
	gateway  Gateway
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewPaymentService(cfg config.Config, signer *Signer, ledger TransactionStore, sessions SessionCache, gateway Gateway, notifier Notifier, logger *slog.Logger) *PaymentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &PaymentService{
		gatewayCfg: cfg.Gateway,
		apiPrefix:  cfg.APIPrefix,
		sessionTTL: ttl,
		fallback:   cfg.CallbackFallback,
		signer:     signer,
		ledger:     ledger,
		sessions:   sessions,
		gateway:    gateway,
		notifier:   notifier,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func newReference(prefix string, n int) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, &ValidationError{Message: msgRequiredFields}
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, &ValidationError{Message: "Amount must be a positive number."}
	}
	// amounts are kept in cents, so anything rounding to zero is rejected
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Decimal{}, &ValidationError{Message: "Amount must be a positive number."}
	}
	return amount, nil
}

// Initiate validates the checkout, signs the gateway parameters, parks them in the
// session cache and opens an INITIATED ledger record
func (s *PaymentService) Initiate(ctx context.Context, req InitiateRequest, baseURL string) (*InitiateResult, error) {
	name := strings.TrimSpace(req.CustomerName)
	phone := strings.TrimSpace(req.CustomerPhone)
	if name == "" || phone == "" {
		return nil, &ValidationError{Message: msgRequiredFields}
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	orderID := newReference("ORDER_", 16)
	customerID := newReference("CUST_", 12)
	email := strings.TrimSpace(req.CustomerEmail)

	params := map[string]string{
		"MID":              s.gatewayCfg.MerchantID,
		"WEBSITE":          s.gatewayCfg.Website,
		"CHANNEL_ID":       s.gatewayCfg.ChannelID,
		"INDUSTRY_TYPE_ID": s.gatewayCfg.IndustryType,
		"ORDER_ID":         orderID,
		"CUST_ID":          customerID,
		"TXN_AMOUNT":       amount.StringFixed(2),
		"CALLBACK_URL":     s.gatewayCfg.CallbackURL,
		"EMAIL":            email,
		"MOBILE_NO":        phone,
	}
	params[SignatureField] = s.signer.Sign(params)

	txn := &models.Transaction{
		OrderID:          orderID,
		CustomerID:       customerID,
		CustomerName:     name,
		CustomerEmail:    email,
		CustomerPhone:    phone,
		Amount:           amount,
		PaymentStatus:    models.PaymentStatusInitiated,
		SettlementStatus: models.SettlementStatusUnsettled,
	}
	if err := s.ledger.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	if err := s.sessions.Put(ctx, PendingSession{OrderID: orderID, Params: params}, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store payment session: %w", err)
	}

	s.logger.Info("payment initiated",
		"order_id", orderID,
		"amount", params["TXN_AMOUNT"],
		"customer", name,
	)

	return &InitiateResult{
		OrderID:    orderID,
		Amount:     params["TXN_AMOUNT"],
		PaymentURL: strings.TrimRight(baseURL, "/") + s.apiPrefix + "/payment/redirect/" + orderID,
	}, nil
}

// ServeRedirect consumes the pending session. A second call for the same order
// returns ErrSessionNotFound.
func (s *PaymentService) ServeRedirect(ctx context.Context, orderID string) (*RedirectForm, error) {
	session, err := s.sessions.Take(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &RedirectForm{
		OrderID: orderID,
		Action:  s.gatewayCfg.PaymentURL(),
		Fields:  session.Params,
	}, nil
}

// HandleCallback verifies a gateway callback, reconciles the authoritative status and
// applies it to the ledger. Only persistence failures are returned as errors.
func (s *PaymentService) HandleCallback(ctx context.Context, params map[string]string) (CallbackOutcome, error) {
	orderID := params["ORDERID"]
	verified := s.signer.Verify(params, params[SignatureField])
	s.recordCallback(ctx, orderID, verified, params)

	if !verified {
		s.logger.Warn("callback signature verification failed", "order_id", orderID)
		return CallbackOutcome{Status: OutcomeFailed, Reason: ReasonChecksumFailed}, nil
	}
	if orderID == "" {
		s.logger.Warn("verified callback without order id")
		return CallbackOutcome{Status: OutcomeFailed, Reason: ReasonUnknownOrder}, nil
	}

	callbackStatus := params["STATUS"]
	finalStatus, resultMsg := s.resolveCallbackStatus(ctx, orderID, callbackStatus)
	if resultMsg == "" {
		resultMsg = params["RESPMSG"]
	}

	reportedAmount, amountErr := decimal.NewFromString(params["TXNAMOUNT"])
	now := s.now()

	txn, err := s.ledger.Update(ctx, orderID, func(t *models.Transaction) error {
		if amountErr == nil && !reportedAmount.Equal(t.Amount) {
			s.logger.Warn("callback amount differs from initiated amount",
				"order_id", orderID,
				"initiated", t.Amount.StringFixed(2),
				"reported", reportedAmount.StringFixed(2),
			)
		}
		if amountErr == nil && reportedAmount.IsPositive() {
			t.Amount = reportedAmount
		}
		t.TxnID = params["TXNID"]
		t.PaymentMode = params["PAYMENTMODE"]
		t.BankName = params["BANKNAME"]
		t.BankTxnID = params["BANKTXNID"]
		t.GatewayName = params["GATEWAYNAME"]
		t.ResultMsg = resultMsg
		t.ApplyPaymentStatus(finalStatus, now)
		return nil
	})
	if errors.Is(err, ErrTransactionNotFound) {
		s.logger.Warn("callback for unknown order", "order_id", orderID)
		return CallbackOutcome{Status: OutcomeFailed, OrderID: orderID, Reason: ReasonUnknownOrder}, nil
	}
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("failed to apply callback for %s: %w", orderID, err)
	}

	outcome := CallbackOutcome{
		OrderID: orderID,
		TxnID:   txn.TxnID,
		Amount:  txn.Amount.StringFixed(2),
	}
	switch txn.PaymentStatus {
	case models.PaymentStatusSuccess:
		outcome.Status = OutcomeSuccess
		s.sendReceipt(*txn)
	case models.PaymentStatusPending:
		outcome.Status = OutcomePending
	default:
		outcome.Status = OutcomeFailed
		outcome.Reason = params["RESPMSG"]
		if outcome.Reason == "" {
			outcome.Reason = resultMsg
		}
		if outcome.Reason == "" {
			outcome.Reason = defaultFailureReason
		}
	}

	s.logger.Info("payment callback applied",
		"order_id", orderID,
		"status", txn.PaymentStatus,
		"txn_id", txn.TxnID,
	)
	return outcome, nil
}

// resolveCallbackStatus prefers the gateway's authoritative status over the one the
// callback reports about itself
func (s *PaymentService) resolveCallbackStatus(ctx context.Context, orderID, callbackStatus string) (models.PaymentStatus, string) {
	res, err := s.gateway.TransactionStatus(ctx, orderID)
	if err == nil && res.Body.ResultInfo.ResultStatus != "" {
		return callbackPaymentStatus(res.Body.ResultInfo.ResultStatus), res.Body.ResultInfo.ResultMsg
	}
	if err == nil {
		err = fmt.Errorf("%w: empty result status", ErrInvalidGatewayResponse)
	}

	s.logger.Warn("authoritative status unavailable, using degraded callback data",
		"order_id", orderID,
		"callback_status", callbackStatus,
		"policy", s.fallback,
		"error", err,
	)

	reported := callbackPaymentStatus(callbackStatus)
	if s.fallback == config.CallbackFallbackCallback || reported == models.PaymentStatusFailure {
		return reported, ""
	}
	return models.PaymentStatusPending, ""
}

// callbackPaymentStatus maps a gateway status onto the ledger. A customer who reached the
// callback is past INITIATED, and anything unrecognised counts as a failure.
func callbackPaymentStatus(raw string) models.PaymentStatus {
	status, ok := models.ParsePaymentStatus(raw)
	if !ok {
		return models.PaymentStatusFailure
	}
	if status == models.PaymentStatusInitiated {
		return models.PaymentStatusPending
	}
	return status
}

func (s *PaymentService) recordCallback(ctx context.Context, orderID string, verified bool, params map[string]string) {
	payload, err := json.Marshal(params)
	if err != nil {
		s.logger.Error("failed to encode callback payload", "order_id", orderID, "error", err)
		return
	}
	entry := &models.PaymentCallbackHistory{
		OrderID:        orderID,
		Verified:       verified,
		ReportedStatus: params["STATUS"],
		Payload:        datatypes.JSON(payload),
	}
	if err := s.ledger.RecordCallback(ctx, entry); err != nil {
		s.logger.Error("failed to record callback", "order_id", orderID, "error", err)
	}
}

func (s *PaymentService) sendReceipt(txn models.Transaction) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifier.SendReceipt(ctx, txn); err != nil {
			s.logger.Error("failed to send receipt", "order_id", txn.OrderID, "error", err)
		}
	}()
}

// Status asks the gateway for the authoritative status of an order without touching the ledger
func (s *PaymentService) Status(ctx context.Context, orderID string) (*StatusResult, error) {
	return s.gateway.TransactionStatus(ctx, orderID)
}

// Refresh re-queries the gateway and writes the authoritative status into the ledger,
// whatever the current state of the record
func (s *PaymentService) Refresh(ctx context.Context, orderID string) (*models.Transaction, *StatusResult, error) {
	if _, err := s.ledger.Get(ctx, orderID); err != nil {
		return nil, nil, err
	}

	res, err := s.Status(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	body := res.Body
	now := s.now()
	txn, err := s.ledger.Update(ctx, orderID, func(t *models.Transaction) error {
		checked := now
		t.LastCheckedAt = &checked
		if body.ResultInfo.ResultMsg != "" {
			t.ResultMsg = body.ResultInfo.ResultMsg
		}
		status, ok := models.ParsePaymentStatus(body.ResultInfo.ResultStatus)
		if !ok {
			return nil
		}
		t.ApplyPaymentStatus(status, now)
		fillIfEmpty(&t.TxnID, body.TxnID)
		fillIfEmpty(&t.BankTxnID, body.BankTxnID)
		fillIfEmpty(&t.PaymentMode, body.PaymentMode)
		fillIfEmpty(&t.BankName, body.BankName)
		fillIfEmpty(&t.GatewayName, body.GatewayName)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store refreshed status: %w", err)
	}

	s.logger.Info("payment status refreshed",
		"order_id", orderID,
		"gateway_status", body.ResultInfo.ResultStatus,
		"status", txn.PaymentStatus,
	)
	return txn, res, nil
}

func fillIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
