package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/frunko/frunko/internal/events"
	"github.com/frunko/frunko/internal/logging"
	"github.com/frunko/frunko/internal/models"
	"github.com/frunko/frunko/internal/repo"
	"github.com/frunko/frunko/internal/search"
	"github.com/frunko/frunko/internal/transport"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderService struct {
	Repo     *repo.GormRepo
	Coupons  *CouponService
	Producer *events.Producer
	Indexer  *search.OrderIndexer
}

func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req transport.CreateOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create")

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}
	for i := range req.Items {
		if req.Items[i].Name == "" {
			return nil, fmt.Errorf("%w: item name required", ErrValidation)
		}
		if req.Items[i].Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if req.Items[i].Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
	}
	if req.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: total_amount must be >= 0", ErrValidation)
	}

	items := make([]models.OrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = models.OrderItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
	}

	order := &models.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Items:          items,
		TotalAmount:    req.TotalAmount,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
		DiscountAmount: req.DiscountAmount,
	}

	// the coupon snapshot is denormalized on purpose: later coupon edits or
	// deletion must not change what this order was charged
	if req.CouponCode != "" {
		order.CouponCode = NormalizeCode(req.CouponCode)
		if err := s.Coupons.RecordRedemption(ctx, order.CouponCode); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	if err := s.Producer.PublishEvent(ctx, "order_events", order.ID.String(), map[string]interface{}{
		"type":    "order_created",
		"orderID": order.ID.String(),
		"userID":  userID.String(),
		"total":   order.TotalAmount.StringFixed(2),
	}); err != nil {
		l.Warn("order_event_publish_failed", "error", err)
	}
	if err := s.Indexer.IndexOrder(ctx, order); err != nil {
		l.Warn("order_index_failed", "error", err)
	}

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
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
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx)
}

// UpdateStatus moves the fulfillment lifecycle, which is orthogonal to the
// payment status and has no transition graph beyond enum membership.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if err := s.Repo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}
	return s.Repo.GetOrder(ctx, orderID)
}

func (s *OrderService) SearchOrders(ctx context.Context, query string, from, size int) (int64, []map[string]interface{}, error) {
	return s.Indexer.SearchOrders(ctx, query, from, size)
}
