package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frunko/frunko/internal/events"
	"github.com/frunko/frunko/internal/logging"
	"github.com/frunko/frunko/internal/paytm"
	"github.com/frunko/frunko/internal/repo"
	"github.com/frunko/frunko/internal/search"
	"github.com/frunko/frunko/internal/transport"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const gatewayOrderPrefix = "FRUNKO"

type PaymentService struct {
	Repo     *repo.GormRepo
	Client   *paytm.Client
	Producer *events.Producer
	Indexer  *search.OrderIndexer
}

// newGatewayOrderID builds the merchant-side correlation id for one gateway
// attempt: prefix + a suffix of the internal order id + a timestamp. It never
// exposes the full internal id and is unique per attempt.
func newGatewayOrderID(orderID uuid.UUID) string {
	id := orderID.String()
	suffix := id[strings.LastIndex(id, "-")+1:]
	return fmt.Sprintf("%s_%s_%d", gatewayOrderPrefix, suffix, time.Now().UnixNano()/int64(time.Millisecond))
}

func (s *PaymentService) Initiate(ctx context.Context, userID uuid.UUID, req transport.InitiatePaymentRequest) (*transport.InitiatePaymentResult, error) {
	l := logging.FromContext(ctx).With("svc", "payment.initiate", "order_id", req.OrderID)

	if req.OrderID == uuid.Nil {
		return nil, fmt.Errorf("%w: orderId required", ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}

	order, err := s.Repo.GetOrder(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, req.OrderID)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, req.OrderID)
	}

	gatewayOrderID := newGatewayOrderID(order.ID)
	amount := req.Amount.StringFixed(2)

	body := map[string]string{
		"ORDER_ID":   gatewayOrderID,
		"TXN_AMOUNT": amount,
		"CUST_ID":    userID.String(),
	}
	// optional contact fields must be absent, not empty
	if req.Email != "" {
		body["EMAIL"] = req.Email
	}
	if req.Phone != "" {
		body["MOBILE_NO"] = req.Phone
	}

	token, err := s.Client.InitiateTransaction(ctx, body)
	if err != nil {
		// the order stays untouched: no gateway order id is ever persisted
		// for an attempt the gateway did not confirm
		l.Error("gateway_initiate_failed", "gateway_order_id", gatewayOrderID, "error", err)
		return nil, err
	}

	if order.PaytmOrderID != "" {
		l.Warn("gateway_order_id_overwrite", "previous", order.PaytmOrderID, "next", gatewayOrderID)
	}
	if err := s.Repo.BindGatewayOrder(ctx, order.ID, gatewayOrderID); err != nil {
		return nil, err
	}

	return &transport.InitiatePaymentResult{
		OrderID:  gatewayOrderID,
		TxnToken: token,
		MID:      s.Client.Config().MerchantID,
		Amount:   amount,
	}, nil
}

// HandleCallback reconciles the gateway's verdict against order state. It
// never returns an error: every outcome, including forged or malformed
// payloads, collapses into a result the endpoint turns into a redirect.
func (s *PaymentService) HandleCallback(ctx context.Context, payload transport.PaytmCallback) transport.CallbackResult {
	l := logging.FromContext(ctx).With("svc", "payment.callback", "gateway_order_id", payload.OrderID)

	// an unverified payload settles nothing: the store, the event stream and
	// the index only ever see gateway-signed verdicts
	if !paytm.Verify(payload.SignedParams(), s.Client.Config().MerchantKey, payload.Checksum) {
		l.Warn("callback_checksum_rejected", "status", payload.Status)
		return transport.CallbackResult{
			Success: false,
			OrderID: payload.OrderID,
			Status:  payload.Status,
		}
	}

	success := payload.Status == paytm.TxnSuccess

	if success {
		if err := s.Repo.SettlePaymentSuccess(ctx, payload.OrderID, payload.TxnID); err != nil {
			l.Error("settle_success_failed", "error", err)
		}
	} else {
		if err := s.Repo.SettlePaymentFailure(ctx, payload.OrderID, payload.TxnID); err != nil {
			l.Error("settle_failure_failed", "error", err)
		}
	}

	if order, err := s.Repo.GetOrderByGatewayID(ctx, payload.OrderID); err == nil {
		if err := s.Producer.PublishEvent(ctx, "payment_events", order.ID.String(), map[string]interface{}{
			"type":           "payment_settled",
			"orderID":        order.ID.String(),
			"paymentStatus":  order.PaymentStatus,
			"gatewayOrderID": payload.OrderID,
			"txnID":          payload.TxnID,
		}); err != nil {
			l.Warn("payment_event_publish_failed", "error", err)
		}
		if err := s.Indexer.IndexOrder(ctx, order); err != nil {
			l.Warn("order_index_failed", "error", err)
		}
	}

	result := transport.CallbackResult{
		Success: success,
		OrderID: payload.OrderID,
		Status:  payload.Status,
	}
	if success {
		result.TxnID = payload.TxnID
	}
	return result
}

// Status reports the payment fields of an order for the polling checkout UI.
func (s *PaymentService) Status(ctx context.Context, userID, orderID uuid.UUID) (map[string]interface{}, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}

	return map[string]interface{}{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
		"payment_method": order.PaymentMethod,
		"paytm_order_id": order.PaytmOrderID,
		"paytm_txn_id":   order.PaytmTxnID,
		"paid_at":        order.PaidAt,
		"total_amount":   order.TotalAmount,
	}, nil
}
