package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentCallbackHistory is the audit trail of every callback received from the gateway,
// whether or not its signature verified
type PaymentCallbackHistory struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	OrderID        string         `gorm:"type:varchar(64);index" json:"orderId"`
	Verified       bool           `gorm:"not null" json:"verified"`
	ReportedStatus string         `gorm:"type:varchar(20)" json:"reportedStatus"`
	Payload        datatypes.JSON `json:"payload"`
	CreatedAt      time.Time      `json:"createdAt"`
}
