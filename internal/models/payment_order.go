// internal/models/payment_order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderOnHold     OrderStatus = "on-hold"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
	OrderFailed     OrderStatus = "failed"
)

// PaidOrderStatuses are the statuses that count as "paid" for acceptance and messaging.
var PaidOrderStatuses = []OrderStatus{OrderProcessing, OrderCompleted, OrderOnHold}

func (s OrderStatus) Paid() bool {
	for _, p := range PaidOrderStatuses {
		if s == p {
			return true
		}
	}
	return false
}

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderOnHold, OrderCompleted, OrderCancelled, OrderRefunded, OrderFailed:
		return true
	}
	return false
}

type PaymentOrder struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BuyerID  uuid.UUID `gorm:"type:uuid;index;not null" json:"buyer_id"`
	VendorID uuid.UUID `gorm:"type:uuid;index;not null" json:"vendor_id"`
	TaskID   uuid.UUID `gorm:"type:uuid;index;not null" json:"task_id"`
	BidID    uuid.UUID `gorm:"type:uuid;index;not null" json:"bid_id"`

	BidAmount int64       `json:"bid_amount"` // informational
	Amount    int64       `json:"amount"`     // platform fee actually charged
	Status    OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaidAt    *time.Time  `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Vendor *VendorProfile `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
}
