package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ValidateCouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CouponValidation struct {
	Valid           bool            `json:"valid"`
	Code            string          `json:"code"`
	DiscountType    string          `json:"discountType"`
	DiscountValue   decimal.Decimal `json:"discountValue"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	FinalAmount     decimal.Decimal `json:"finalAmount"`
}

type UpsertCouponRequest struct {
	Code          string           `json:"code"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	MinOrderValue *decimal.Decimal `json:"min_order_value"`
	UsageLimit    *int             `json:"usage_limit"`
	IsActive      *bool            `json:"is_active"`
	ValidFrom     *time.Time       `json:"valid_from"`
	ValidUntil    *time.Time       `json:"valid_until"`
}

type CreateOrderItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	Items          []CreateOrderItem `json:"items"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	CouponCode     string            `json:"coupon_code"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type InitiatePaymentRequest struct {
	OrderID uuid.UUID       `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Email   string          `json:"email"`
	Phone   string          `json:"phone"`
}

type InitiatePaymentResult struct {
	OrderID  string `json:"orderId"`
	TxnToken string `json:"txnToken"`
	MID      string `json:"mid"`
	Amount   string `json:"amount"`
}

// PaytmCallback is the form-encoded field bag the gateway posts back after a
// hosted-checkout session ends. The checksum covers every field except itself.
type PaytmCallback struct {
	OrderID   string `form:"ORDERID"`
	TxnID     string `form:"TXNID"`
	Status    string `form:"STATUS"`
	TxnAmount string `form:"TXNAMOUNT"`
	RespCode  string `form:"RESPCODE"`
	RespMsg   string `form:"RESPMSG"`
	Checksum  string `form:"CHECKSUMHASH"`
}

// SignedParams returns the callback fields the checksum is computed over,
// excluding the checksum itself. Empty fields are included; canonicalization
// in the checksum code drops them, matching how the gateway omits absent
// fields from its own signature.
func (p PaytmCallback) SignedParams() map[string]string {
	return map[string]string{
		"ORDERID":   p.OrderID,
		"TXNID":     p.TxnID,
		"STATUS":    p.Status,
		"TXNAMOUNT": p.TxnAmount,
		"RESPCODE":  p.RespCode,
		"RESPMSG":   p.RespMsg,
	}
}

type CallbackResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	TxnID   string `json:"txnId,omitempty"`
	Status  string `json:"status,omitempty"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
