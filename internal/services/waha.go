package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront_pay/internal/config"
	"storefront_pay/internal/models"
)

// WahaService sends WhatsApp receipts through a WAHA instance
type WahaService struct {
	baseURL string
	apiKey  string
	session string
	client  *http.Client
}

func NewWahaService(cfg config.WAHA) *WahaService {
	session := cfg.Session
	if session == "" {
		session = "default"
	}
	return &WahaService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		session: session,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WahaService) post(ctx context.Context, endpoint string, payload map[string]string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// NormalizeChatID turns a customer phone number into a WhatsApp chat id. Local ten digit
// numbers and numbers with a trunk '0' get the Indian country code.
func NormalizeChatID(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasSuffix(phone, "@g.us") {
		return phone
	}
	phone = strings.TrimSuffix(phone, "@c.us")

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	digits = strings.TrimPrefix(digits, "0")
	if len(digits) == 10 {
		digits = "91" + digits
	}
	return digits + "@c.us"
}

func (s *WahaService) SendMessage(ctx context.Context, phone, text string) error {
	chatID := NormalizeChatID(phone)
	if err := s.post(ctx, "/api/sendText", map[string]string{
		"chatId":  chatID,
		"text":    text,
		"session": s.session,
	}); err != nil {
		return fmt.Errorf("failed to send text to %s: %w", chatID, err)
	}
	return nil
}

// SendReceipt messages the customer's phone with the receipt
func (s *WahaService) SendReceipt(ctx context.Context, txn models.Transaction) error {
	if txn.CustomerPhone == "" {
		return nil
	}
	return s.SendMessage(ctx, txn.CustomerPhone, receiptText(txn))
}
