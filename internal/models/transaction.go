package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentStatus is the gateway-facing state of a checkout attempt
type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "INITIATED"
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "TXN_SUCCESS"
	PaymentStatusFailure   PaymentStatus = "TXN_FAILURE"
)

// ParsePaymentStatus maps a gateway status string onto a known PaymentStatus
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentStatusInitiated, PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailure:
		return PaymentStatus(s), true
	}
	return "", false
}

// IsTerminal reports whether the status is a final gateway resolution
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailure
}

// SettlementStatus tracks the payout of a successful payment
type SettlementStatus string

const (
	SettlementStatusUnsettled SettlementStatus = "unsettled"
	SettlementStatusRequested SettlementStatus = "settlement_requested"
	SettlementStatusSettled   SettlementStatus = "settled"
)

// Transaction is the ledger record of one checkout attempt
type Transaction struct {
	OrderID       string          `gorm:"type:varchar(64);primaryKey" json:"orderId"`
	CustomerID    string          `gorm:"type:varchar(64);not null" json:"customerId"`
	CustomerName  string          `gorm:"type:varchar(255)" json:"customerName"`
	CustomerEmail string          `gorm:"type:varchar(255)" json:"customerEmail"`
	CustomerPhone string          `gorm:"type:varchar(50)" json:"customerPhone"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(20);index;not null" json:"paymentStatus"`
	TxnID         string        `gorm:"type:varchar(128)" json:"txnId,omitempty"`
	PaymentMode   string        `gorm:"type:varchar(50)" json:"paymentMode,omitempty"`
	BankName      string        `gorm:"type:varchar(100)" json:"bankName,omitempty"`
	BankTxnID     string        `gorm:"type:varchar(128)" json:"bankTxnId,omitempty"`
	GatewayName   string        `gorm:"type:varchar(100)" json:"gatewayName,omitempty"`
	ResultMsg     string        `gorm:"type:varchar(255)" json:"resultMsg,omitempty"`

	SettlementStatus      SettlementStatus `gorm:"type:varchar(32);index;not null;default:'unsettled'" json:"settlementStatus"`
	SettlementRequestedAt *time.Time       `json:"settlementRequestedAt"`
	SettledAt             *time.Time       `json:"settledAt"`
	SettlementResponse    datatypes.JSON   `json:"settlementResponse,omitempty"`

	CreatedAt     time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	CompletedAt   *time.Time `json:"completedAt"`
	LastCheckedAt *time.Time `json:"lastCheckedAt"`
}

// ApplyPaymentStatus moves the record to next, honoring the ledger transition rules:
// nothing regresses to INITIATED once it left it, completedAt is stamped on the first
// terminal resolution, and leaving TXN_SUCCESS resets settlement bookkeeping.
func (t *Transaction) ApplyPaymentStatus(next PaymentStatus, now time.Time) {
	if next == PaymentStatusInitiated && t.PaymentStatus != PaymentStatusInitiated {
		return
	}
	t.PaymentStatus = next
	if next.IsTerminal() && t.CompletedAt == nil {
		completed := now
		t.CompletedAt = &completed
	}
	if next != PaymentStatusSuccess {
		t.SettlementStatus = SettlementStatusUnsettled
		t.SettlementRequestedAt = nil
		t.SettledAt = nil
	}
}

// Settleable reports whether a payout may be requested for this record
func (t *Transaction) Settleable() bool {
	return t.PaymentStatus == PaymentStatusSuccess
}
