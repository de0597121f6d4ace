package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_pay/internal/models"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := InitDB("", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewLedger(db)
}

func seedTransaction(t *testing.T, l *Ledger, orderID, amount string, status models.PaymentStatus, settlement models.SettlementStatus, createdAt time.Time) {
	t.Helper()
	txn := &models.Transaction{
		OrderID:          orderID,
		CustomerID:       "CUST_" + orderID,
		CustomerName:     "Test",
		CustomerPhone:    "9999999999",
		Amount:           decimal.RequireFromString(amount),
		PaymentStatus:    status,
		SettlementStatus: settlement,
		CreatedAt:        createdAt,
	}
	require.NoError(t, l.Create(context.Background(), txn))
}

func TestLedgerCreateAndGet(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	seedTransaction(t, l, "O1", "1000.50", models.PaymentStatusInitiated, "", time.Now().UTC())

	txn, err := l.Get(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusInitiated, txn.PaymentStatus)
	assert.Equal(t, models.SettlementStatusUnsettled, txn.SettlementStatus)
	assert.True(t, decimal.RequireFromString("1000.50").Equal(txn.Amount))
	assert.Nil(t, txn.CompletedAt)

	_, err = l.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestLedgerRejectsReusedOrderID(t *testing.T) {
	l := newTestLedger(t)
	seedTransaction(t, l, "O1", "10", models.PaymentStatusInitiated, "", time.Now().UTC())

	err := l.Create(context.Background(), &models.Transaction{OrderID: "O1", CustomerID: "C", Amount: decimal.NewFromInt(1), PaymentStatus: models.PaymentStatusInitiated})
	assert.ErrorIs(t, err, ErrDuplicateOrder)
}

func TestLedgerUpdate(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	seedTransaction(t, l, "O1", "10", models.PaymentStatusInitiated, "", time.Now().UTC())

	updated, err := l.Update(ctx, "O1", func(txn *models.Transaction) error {
		txn.ApplyPaymentStatus(models.PaymentStatusSuccess, time.Now().UTC())
		txn.TxnID = "T1"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", updated.TxnID)

	stored, err := l.Get(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, stored.PaymentStatus)
	assert.NotNil(t, stored.CompletedAt)
}

func TestLedgerUpdateAbortsOnError(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	seedTransaction(t, l, "O1", "10", models.PaymentStatusInitiated, "", time.Now().UTC())

	boom := errors.New("boom")
	_, err := l.Update(ctx, "O1", func(txn *models.Transaction) error {
		txn.PaymentStatus = models.PaymentStatusSuccess
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := l.Get(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusInitiated, stored.PaymentStatus)

	_, err = l.Update(ctx, "missing", func(*models.Transaction) error { return nil })
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestLedgerUpdateKeepsSettlementUnsettledWhenNotSuccessful(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	seedTransaction(t, l, "O1", "10", models.PaymentStatusFailure, "", time.Now().UTC())

	updated, err := l.Update(ctx, "O1", func(txn *models.Transaction) error {
		txn.SettlementStatus = models.SettlementStatusSettled
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.SettlementStatusUnsettled, updated.SettlementStatus)
}

func TestLedgerConcurrentUpdatesAreNotLost(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	seedTransaction(t, l, "O1", "0", models.PaymentStatusInitiated, "", time.Now().UTC())

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Update(ctx, "O1", func(txn *models.Transaction) error {
				txn.Amount = txn.Amount.Add(decimal.NewFromInt(1))
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := l.Get(ctx, "O1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(workers).Equal(stored.Amount), "amount %s", stored.Amount)
}

func TestLedgerListFilters(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	seedTransaction(t, l, "A", "10", models.PaymentStatusSuccess, models.SettlementStatusUnsettled, base)
	seedTransaction(t, l, "B", "20", models.PaymentStatusSuccess, models.SettlementStatusSettled, base.Add(time.Minute))
	seedTransaction(t, l, "C", "30", models.PaymentStatusFailure, "", base.Add(2*time.Minute))
	seedTransaction(t, l, "D", "40", models.PaymentStatusPending, "", base.Add(3*time.Minute))

	tests := []struct {
		filter   TransactionFilter
		expected []string
	}{
		{FilterAll, []string{"D", "C", "B", "A"}},
		{FilterSuccessful, []string{"B", "A"}},
		{FilterUnsettled, []string{"A"}},
		{FilterPending, []string{"D"}},
		{FilterFailed, []string{"C"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			txns, err := l.List(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, txn := range txns {
				ids = append(ids, txn.OrderID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestLedgerListStale(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	seedTransaction(t, l, "old-initiated", "10", models.PaymentStatusInitiated, "", now.Add(-time.Hour))
	seedTransaction(t, l, "old-pending", "10", models.PaymentStatusPending, "", now.Add(-30*time.Minute))
	seedTransaction(t, l, "fresh-pending", "10", models.PaymentStatusPending, "", now.Add(-time.Minute))
	seedTransaction(t, l, "old-success", "10", models.PaymentStatusSuccess, "", now.Add(-time.Hour))

	txns, err := l.ListStale(ctx, now.Add(-10*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "old-initiated", txns[0].OrderID)
	assert.Equal(t, "old-pending", txns[1].OrderID)
}

func TestLedgerSummary(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedTransaction(t, l, "A", "100.25", models.PaymentStatusSuccess, models.SettlementStatusUnsettled, now)
	seedTransaction(t, l, "B", "200.10", models.PaymentStatusSuccess, models.SettlementStatusRequested, now)
	seedTransaction(t, l, "C", "300.00", models.PaymentStatusSuccess, models.SettlementStatusSettled, now)
	seedTransaction(t, l, "D", "999.99", models.PaymentStatusFailure, "", now)
	seedTransaction(t, l, "E", "50.00", models.PaymentStatusPending, "", now)
	seedTransaction(t, l, "F", "5.00", models.PaymentStatusInitiated, "", now)

	s, err := l.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, s.TotalTransactions)
	assert.Equal(t, 3, s.SuccessfulPayments)
	assert.Equal(t, 1, s.FailedPayments)
	assert.Equal(t, 1, s.PendingPayments)
	assert.Equal(t, 1, s.InitiatedPayments)
	assert.Equal(t, "600.35", s.TotalRevenue.StringFixed(2))
	assert.Equal(t, "100.25", s.UnsettledAmount.StringFixed(2))
	assert.Equal(t, 1, s.UnsettledCount)
	assert.Equal(t, 1, s.SettlementRequestedCount)
	assert.Equal(t, 1, s.SettledCount)
}

func TestLedgerSummaryEmpty(t *testing.T) {
	l := newTestLedger(t)
	s, err := l.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalTransactions)
	assert.True(t, s.TotalRevenue.IsZero())
}

func TestLedgerSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := InitDB("", path)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	l := NewLedger(db)
	require.NoError(t, l.Create(context.Background(), &models.Transaction{
		OrderID: "O1", CustomerID: "C1", Amount: decimal.NewFromInt(5), PaymentStatus: models.PaymentStatusInitiated,
	}))
	sqlDB, _ := db.DB()
	require.NoError(t, sqlDB.Close())

	reopened, err := InitDB("", path)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := reopened.DB(); err == nil {
			sqlDB.Close()
		}
	})
	txn, err := NewLedger(reopened).Get(context.Background(), "O1")
	require.NoError(t, err)
	assert.Equal(t, "C1", txn.CustomerID)
}
