package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

const (
	OrderStatusPending        = "pending"
	OrderStatusPreparing      = "preparing"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

type Coupon struct {
	ID            uint                `gorm:"primaryKey"             json:"id"`
	Code          string              `gorm:"uniqueIndex;not null"   json:"code"`
	DiscountType  string              `gorm:"not null"               json:"discount_type"`
	DiscountValue decimal.Decimal     `gorm:"type:numeric(12,2)"     json:"discount_value"`
	MaxDiscount   decimal.NullDecimal `gorm:"type:numeric(12,2)"     json:"max_discount"`
	MinOrderValue decimal.NullDecimal `gorm:"type:numeric(12,2)"     json:"min_order_value"`
	UsageLimit    *int                `json:"usage_limit"`
	UsedCount     int                 `gorm:"not null;default:0"     json:"used_count"`
	IsActive      bool                `gorm:"not null;default:true"  json:"is_active"`
	ValidFrom     *time.Time          `json:"valid_from"`
	ValidUntil    *time.Time          `json:"valid_until"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	DeletedAt     gorm.DeletedAt      `gorm:"index"                  json:"-"`
}

type Order struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"      json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;index;not null"  json:"user_id"`
	Items          []OrderItem     `json:"items"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2)"        json:"total_amount"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2)"        json:"discount_amount"`
	Status         string          `gorm:"not null"                  json:"status"`
	PaymentStatus  string          `gorm:"not null"                  json:"payment_status"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	PaytmOrderID   string          `gorm:"index"                     json:"paytm_order_id,omitempty"`
	PaytmTxnID     string          `json:"paytm_txn_id,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID       uint            `gorm:"primaryKey"                json:"id"`
	OrderID  uuid.UUID       `gorm:"type:uuid;index;not null"  json:"order_id"`
	Name     string          `gorm:"not null"                  json:"name"`
	Quantity int             `gorm:"not null;check:quantity>0" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:numeric(12,2)"        json:"price"`
}

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"   json:"id"`
	Email        string         `gorm:"uniqueIndex;not null"   json:"email"`
	Name         string         `json:"name"`
	PasswordHash string         `json:"-"`
	Role         string         `gorm:"not null;default:user"  json:"role"`
	Blocked      bool           `gorm:"not null;default:false" json:"blocked"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index"                  json:"-"`
}

// fulfillment lifecycle, orthogonal to payment status
var orderStatuses = map[string]bool{
	OrderStatusPending:        true,
	OrderStatusPreparing:      true,
	OrderStatusOutForDelivery: true,
	OrderStatusDelivered:      true,
	OrderStatusCancelled:      true,
}

func ValidOrderStatus(s string) bool {
	return orderStatuses[s]
}

// NextPaymentStatus decides whether an order's payment status may move to
// target. Only pending->paid and pending->failed are real transitions;
// re-applying the current terminal state is reported as a no-op so a replayed
// gateway callback cannot corrupt a settled order.
func NextPaymentStatus(current, target string) (transition bool, noop bool) {
	if current == target {
		return false, current == PaymentStatusPaid || current == PaymentStatusFailed
	}
	if current != PaymentStatusPending {
		return false, false
	}
	return target == PaymentStatusPaid || target == PaymentStatusFailed, false
}
