package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront_pay/internal/models"
)

// Notifier delivers a payment receipt to the customer
type Notifier interface {
	SendReceipt(ctx context.Context, txn models.Transaction) error
}

// NopNotifier drops every receipt
type NopNotifier struct{}

func (NopNotifier) SendReceipt(context.Context, models.Transaction) error { return nil }

// MultiNotifier fans a receipt out to every channel and joins their errors
type MultiNotifier []Notifier

func (m MultiNotifier) SendReceipt(ctx context.Context, txn models.Transaction) error {
	var errs []error
	for _, n := range m {
		if err := n.SendReceipt(ctx, txn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func receiptSubject(txn models.Transaction) string {
	return fmt.Sprintf("Payment received for order %s", txn.OrderID)
}

func receiptText(txn models.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", txn.CustomerName)
	fmt.Fprintf(&b, "We received your payment of Rs. %s.\n\n", txn.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Order: %s\n", txn.OrderID)
	if txn.TxnID != "" {
		fmt.Fprintf(&b, "Transaction: %s\n", txn.TxnID)
	}
	if txn.PaymentMode != "" {
		fmt.Fprintf(&b, "Paid via: %s\n", txn.PaymentMode)
	}
	b.WriteString("\nThank you for shopping with us.")
	return b.String()
}
