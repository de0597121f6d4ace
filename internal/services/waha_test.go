package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_pay/internal/config"
	"storefront_pay/internal/models"
)

func TestNormalizeChatID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "ten digit local number",
			input:    "9876543210",
			expected: "919876543210@c.us",
		},
		{
			name:     "trunk prefix",
			input:    "09876543210",
			expected: "919876543210@c.us",
		},
		{
			name:     "with country code and plus",
			input:    "+91 98765-43210",
			expected: "919876543210@c.us",
		},
		{
			name:     "already a chat id",
			input:    "919876543210@c.us",
			expected: "919876543210@c.us",
		},
		{
			name:     "group id",
			input:    "120363407813232111@g.us",
			expected: "120363407813232111@g.us",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeChatID(tt.input))
		})
	}
}

func TestWahaSendReceipt(t *testing.T) {
	var gotPath, gotKey string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	svc := NewWahaService(config.WAHA{BaseURL: srv.URL, APIKey: "k1", Session: "shop"})
	txn := models.Transaction{
		OrderID:       "ORDER_1",
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Amount:        decimal.RequireFromString("1000"),
	}

	require.NoError(t, svc.SendReceipt(context.Background(), txn))
	assert.Equal(t, "/api/sendText", gotPath)
	assert.Equal(t, "k1", gotKey)
	assert.Equal(t, "919876543210@c.us", got["chatId"])
	assert.Equal(t, "shop", got["session"])
	assert.Contains(t, got["text"], "ORDER_1")
	assert.Contains(t, got["text"], "1000.00")
}

func TestWahaSendReceiptErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not started", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	svc := NewWahaService(config.WAHA{BaseURL: srv.URL})
	err := svc.SendReceipt(context.Background(), models.Transaction{OrderID: "O1", CustomerPhone: "9876543210"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")

	assert.NoError(t, svc.SendReceipt(context.Background(), models.Transaction{OrderID: "O2"}))
}
