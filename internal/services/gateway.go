package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront_pay/internal/config"
)

var (
	ErrGatewayUnavailable     = errors.New("payment gateway unavailable")
	ErrInvalidGatewayResponse = errors.New("invalid payment gateway response")
)

// ResultInfo is the outcome block of every gateway API response
type ResultInfo struct {
	ResultStatus string `json:"resultStatus"`
	ResultCode   string `json:"resultCode"`
	ResultMsg    string `json:"resultMsg"`
}

// StatusBody is the body of the transaction status API response
type StatusBody struct {
	ResultInfo  ResultInfo `json:"resultInfo"`
	TxnID       string     `json:"txnId"`
	BankTxnID   string     `json:"bankTxnId"`
	OrderID     string     `json:"orderId"`
	TxnAmount   string     `json:"txnAmount"`
	TxnType     string     `json:"txnType"`
	GatewayName string     `json:"gatewayName"`
	BankName    string     `json:"bankName"`
	PaymentMode string     `json:"paymentMode"`
	TxnDate     string     `json:"txnDate"`
}

// StatusResult carries the authoritative status of an order plus the raw payload
type StatusResult struct {
	Body StatusBody
	Raw  json.RawMessage
}

// SettlementResult is the gateway's answer to an on-demand settlement request
type SettlementResult struct {
	ResultInfo ResultInfo
	Raw        json.RawMessage
}

// Accepted reports whether the gateway acknowledged the settlement request
func (r *SettlementResult) Accepted() bool {
	switch r.ResultInfo.ResultStatus {
	case "SUCCESS", "S", "ACCEPTED":
		return true
	}
	return false
}

// Gateway is the remote payment gateway API used after the redirect hand-off
type Gateway interface {
	TransactionStatus(ctx context.Context, orderID string) (*StatusResult, error)
	RequestSettlement(ctx context.Context, orderID string) (*SettlementResult, error)
}

// PaytmGateway talks to the gateway's JSON APIs, signing every request body
type PaytmGateway struct {
	cfg    config.Gateway
	signer *Signer
	client *http.Client
}

func NewPaytmGateway(cfg config.Gateway, signer *Signer) *PaytmGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PaytmGateway{
		cfg:    cfg,
		signer: signer,
		client: &http.Client{Timeout: timeout},
	}
}

type signedRequest struct {
	Body map[string]string `json:"body"`
	Head map[string]string `json:"head"`
}

func (g *PaytmGateway) post(ctx context.Context, url string, body map[string]string) ([]byte, int, error) {
	signature, err := g.signer.SignBody(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to sign request: %w", err)
	}

	data, err := json.Marshal(signedRequest{Body: body, Head: map[string]string{"signature": signature}})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrGatewayUnavailable, err)
	}
	return respBody, resp.StatusCode, nil
}

// TransactionStatus queries the authoritative status of an order
func (g *PaytmGateway) TransactionStatus(ctx context.Context, orderID string) (*StatusResult, error) {
	respBody, code, err := g.post(ctx, g.cfg.StatusURL(), map[string]string{
		"mid":     g.cfg.MerchantID,
		"orderId": orderID,
	})
	if err != nil {
		return nil, err
	}
	if code >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status endpoint returned %d", ErrGatewayUnavailable, code)
	}

	var parsed struct {
		Body StatusBody `json:"body"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGatewayResponse, err)
	}
	return &StatusResult{Body: parsed.Body, Raw: json.RawMessage(respBody)}, nil
}

// RequestSettlement asks the gateway to settle an order on demand. A response that is
// not JSON is still returned, wrapped as {"raw": "..."}.
func (g *PaytmGateway) RequestSettlement(ctx context.Context, orderID string) (*SettlementResult, error) {
	respBody, _, err := g.post(ctx, g.cfg.SettlementURL(), map[string]string{
		"mid":            g.cfg.MerchantID,
		"orderId":        orderID,
		"settlementType": "ON_DEMAND",
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Body struct {
			ResultInfo ResultInfo `json:"resultInfo"`
		} `json:"body"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		raw, _ := json.Marshal(map[string]string{"raw": string(respBody)})
		return &SettlementResult{Raw: raw}, nil
	}

	info := parsed.Body.ResultInfo
	if info.ResultStatus == "" {
		info.ResultStatus = parsed.Status
	}
	return &SettlementResult{ResultInfo: info, Raw: json.RawMessage(respBody)}, nil
}
