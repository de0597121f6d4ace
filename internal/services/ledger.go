package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront_pay/internal/models"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateOrder      = errors.New("order id already exists")
)

// TransactionFilter selects a subset of the ledger for listing
type TransactionFilter string

const (
	FilterAll        TransactionFilter = "all"
	FilterSuccessful TransactionFilter = "successful"
	FilterUnsettled  TransactionFilter = "unsettled"
	FilterPending    TransactionFilter = "pending"
	FilterFailed     TransactionFilter = "failed"
)

// ParseTransactionFilter maps a query parameter onto a filter, defaulting to all
func ParseTransactionFilter(s string) (TransactionFilter, bool) {
	switch TransactionFilter(s) {
	case "", FilterAll:
		return FilterAll, true
	case FilterSuccessful, FilterUnsettled, FilterPending, FilterFailed:
		return TransactionFilter(s), true
	}
	return "", false
}

// Summary is the admin dashboard aggregate over the whole ledger
type Summary struct {
	TotalTransactions        int             `json:"totalTransactions"`
	InitiatedPayments        int             `json:"initiatedPayments"`
	SuccessfulPayments       int             `json:"successfulPayments"`
	FailedPayments           int             `json:"failedPayments"`
	PendingPayments          int             `json:"pendingPayments"`
	TotalRevenue             decimal.Decimal `json:"totalRevenue"`
	UnsettledAmount          decimal.Decimal `json:"unsettledAmount"`
	UnsettledCount           int             `json:"unsettledCount"`
	SettlementRequestedCount int             `json:"settlementRequestedCount"`
	SettledCount             int             `json:"settledCount"`
}

// TransactionStore is the ledger contract the payment and settlement services depend on
type TransactionStore interface {
	Create(ctx context.Context, txn *models.Transaction) error
	Get(ctx context.Context, orderID string) (*models.Transaction, error)
	Update(ctx context.Context, orderID string, fn func(*models.Transaction) error) (*models.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]models.Transaction, error)
	Summary(ctx context.Context) (Summary, error)
	RecordCallback(ctx context.Context, entry *models.PaymentCallbackHistory) error
}

// Ledger is the gorm-backed transaction store. All mutations go through a single
// writer lock so read-modify-write cycles on the same order never interleave.
type Ledger struct {
	db *gorm.DB
	mu sync.RWMutex
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Create inserts a new record; order ids are never reused
func (l *Ledger) Create(ctx context.Context, txn *models.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var count int64
	if err := l.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("order_id = ?", txn.OrderID).Count(&count).Error; err != nil {
		return fmt.Errorf("check order id: %w", err)
	}
	if count > 0 {
		return ErrDuplicateOrder
	}

	if txn.SettlementStatus == "" {
		txn.SettlementStatus = models.SettlementStatusUnsettled
	}
	if err := l.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// Get loads one record by order id
func (l *Ledger) Get(ctx context.Context, orderID string) (*models.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.get(ctx, l.db, orderID)
}

func (l *Ledger) get(ctx context.Context, db *gorm.DB, orderID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := db.WithContext(ctx).Where("order_id = ?", orderID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction %s: %w", orderID, err)
	}
	return &txn, nil
}

// Update applies fn to the current record and persists the result atomically.
// If fn returns an error nothing is written.
func (l *Ledger) Update(ctx context.Context, orderID string, fn func(*models.Transaction) error) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var updated *models.Transaction
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn, err := l.get(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := fn(txn); err != nil {
			return err
		}
		if !txn.Settleable() {
			txn.SettlementStatus = models.SettlementStatusUnsettled
		}
		if err := tx.Save(txn).Error; err != nil {
			return fmt.Errorf("save transaction %s: %w", orderID, err)
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// List returns the filtered records, newest first
func (l *Ledger) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	query := l.db.WithContext(ctx).Model(&models.Transaction{})
	switch filter {
	case FilterSuccessful:
		query = query.Where("payment_status = ?", models.PaymentStatusSuccess)
	case FilterUnsettled:
		query = query.Where("payment_status = ? AND settlement_status = ?", models.PaymentStatusSuccess, models.SettlementStatusUnsettled)
	case FilterPending:
		query = query.Where("payment_status = ?", models.PaymentStatusPending)
	case FilterFailed:
		query = query.Where("payment_status = ?", models.PaymentStatusFailure)
	}

	var txns []models.Transaction
	if err := query.Order("created_at desc").Order("order_id").Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// ListStale returns unresolved records (INITIATED or PENDING) created before olderThan,
// oldest first
func (l *Ledger) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]models.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var txns []models.Transaction
	err := l.db.WithContext(ctx).
		Where("payment_status IN ? AND created_at < ?",
			[]models.PaymentStatus{models.PaymentStatusInitiated, models.PaymentStatusPending}, olderThan).
		Order("created_at asc").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("list stale transactions: %w", err)
	}
	return txns, nil
}

// Summary aggregates the whole ledger on every call
func (l *Ledger) Summary(ctx context.Context) (Summary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var txns []models.Transaction
	if err := l.db.WithContext(ctx).Find(&txns).Error; err != nil {
		return Summary{}, fmt.Errorf("scan transactions: %w", err)
	}
	return summarize(txns), nil
}

func summarize(txns []models.Transaction) Summary {
	s := Summary{
		TotalTransactions: len(txns),
		TotalRevenue:      decimal.Zero,
		UnsettledAmount:   decimal.Zero,
	}
	for _, t := range txns {
		switch t.PaymentStatus {
		case models.PaymentStatusInitiated:
			s.InitiatedPayments++
		case models.PaymentStatusPending:
			s.PendingPayments++
		case models.PaymentStatusFailure:
			s.FailedPayments++
		case models.PaymentStatusSuccess:
			s.SuccessfulPayments++
			s.TotalRevenue = s.TotalRevenue.Add(t.Amount)
			switch t.SettlementStatus {
			case models.SettlementStatusUnsettled:
				s.UnsettledCount++
				s.UnsettledAmount = s.UnsettledAmount.Add(t.Amount)
			case models.SettlementStatusRequested:
				s.SettlementRequestedCount++
			case models.SettlementStatusSettled:
				s.SettledCount++
			}
		}
	}
	return s
}

// RecordCallback appends an entry to the callback audit trail
func (l *Ledger) RecordCallback(ctx context.Context, entry *models.PaymentCallbackHistory) error {
	return l.db.WithContext(ctx).Create(entry).Error
}
