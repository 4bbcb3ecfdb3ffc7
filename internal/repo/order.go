package repo

import (
	"context"
	"errors"
	"time"

	"github.com/frunko/frunko/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderByGatewayID(ctx context.Context, paytmOrderID string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("paytm_order_id = ?", paytmOrderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// BindGatewayOrder attaches a freshly issued gateway order id to an order.
// Called only after the gateway confirmed token issuance.
func (r *GormRepo) BindGatewayOrder(ctx context.Context, id uuid.UUID, paytmOrderID string) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"paytm_order_id": paytmOrderID,
		"payment_method": "paytm",
		"payment_status": models.PaymentStatusPending,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SettlePaymentSuccess applies a successful gateway settlement exactly once.
// A replay against an already-paid order is a no-op that leaves paid_at and
// paytm_txn_id untouched. A missing order is tolerated silently.
func (r *GormRepo) SettlePaymentSuccess(ctx context.Context, paytmOrderID, txnID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Where("paytm_order_id = ?", paytmOrderID).First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		transition, noop := models.NextPaymentStatus(order.PaymentStatus, models.PaymentStatusPaid)
		if noop || !transition {
			return nil
		}

		now := time.Now().UTC()
		return tx.Model(&order).Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"paytm_txn_id":   txnID,
			"paid_at":        &now,
		}).Error
	})
}

// SettlePaymentFailure marks pending attempts for the gateway order id as
// failed. The payment_status predicate makes the update multi-row-safe and
// keeps it from downgrading an order that already settled as paid.
func (r *GormRepo) SettlePaymentFailure(ctx context.Context, paytmOrderID, txnID string) error {
	updates := map[string]interface{}{"payment_status": models.PaymentStatusFailed}
	if txnID != "" {
		updates["paytm_txn_id"] = txnID
	}
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("paytm_order_id = ? AND payment_status = ?", paytmOrderID, models.PaymentStatusPending).
		Updates(updates).Error
}
