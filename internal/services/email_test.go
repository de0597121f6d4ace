package services

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_pay/internal/config"
	"storefront_pay/internal/models"
)

func TestEmailSendReceipt(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	svc := NewEmailService(config.SMTP{Host: "smtp.test", Port: "587", User: "u", Password: "p", From: "shop@test"})
	svc.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	txn := models.Transaction{
		OrderID:       "ORDER_1",
		TxnID:         "T1",
		CustomerName:  "Asha",
		CustomerEmail: "asha@test",
		Amount:        decimal.RequireFromString("49.5"),
	}
	require.NoError(t, svc.SendReceipt(context.Background(), txn))

	assert.Equal(t, "smtp.test:587", gotAddr)
	assert.Equal(t, "shop@test", gotFrom)
	assert.Equal(t, []string{"asha@test"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Payment received for order ORDER_1")
	assert.Contains(t, string(gotMsg), "Rs. 49.50")
	assert.Contains(t, string(gotMsg), "Transaction: T1")
}

func TestEmailSendReceiptSkipsAndFailures(t *testing.T) {
	t.Run("no customer email", func(t *testing.T) {
		svc := NewEmailService(config.SMTP{})
		assert.NoError(t, svc.SendReceipt(context.Background(), models.Transaction{OrderID: "O1"}))
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewEmailService(config.SMTP{Host: "smtp.test"})
		assert.False(t, svc.Configured())
		assert.Error(t, svc.SendReceipt(context.Background(), models.Transaction{CustomerEmail: "a@test"}))
	})

	t.Run("smtp error", func(t *testing.T) {
		svc := NewEmailService(config.SMTP{Host: "smtp.test", Port: "25", User: "u", Password: "p"})
		svc.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		}
		err := svc.SendReceipt(context.Background(), models.Transaction{CustomerEmail: "a@test"})
		assert.ErrorContains(t, err, "connection refused")
	})
}

type recordingNotifier struct {
	sent chan models.Transaction
	err  error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan models.Transaction, 10)}
}

func (n *recordingNotifier) SendReceipt(_ context.Context, txn models.Transaction) error {
	n.sent <- txn
	return n.err
}

func TestMultiNotifierJoinsErrors(t *testing.T) {
	ok := newRecordingNotifier()
	failing := newRecordingNotifier()
	failing.err = errors.New("down")

	err := MultiNotifier{ok, failing}.SendReceipt(context.Background(), models.Transaction{OrderID: "O1"})
	assert.ErrorContains(t, err, "down")
	assert.Len(t, ok.sent, 1)
	assert.Len(t, failing.sent, 1)
}
