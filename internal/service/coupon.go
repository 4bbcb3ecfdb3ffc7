package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frunko/frunko/internal/models"
	"github.com/frunko/frunko/internal/repo"
	"github.com/frunko/frunko/internal/transport"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404

	// Coupon gate failures, checked in this order. Each is user-correctable
	// and surfaces its own message; handlers collapse all of them to 400 via
	// ErrValidation.
	ErrCouponNotFound     = fmt.Errorf("%w: coupon not found", ErrValidation)
	ErrCouponInactive     = fmt.Errorf("%w: coupon is inactive", ErrValidation)
	ErrCouponExpired      = fmt.Errorf("%w: coupon has expired", ErrValidation)
	ErrCouponNotYetActive = fmt.Errorf("%w: coupon is not active yet", ErrValidation)
	ErrCouponExhausted    = fmt.Errorf("%w: coupon usage limit reached", ErrValidation)
	ErrBelowMinimumOrder  = fmt.Errorf("%w: order below coupon minimum", ErrValidation)
)

var hundred = decimal.NewFromInt(100)

type CouponService struct {
	Repo *repo.GormRepo
}

// NormalizeCode is how every lookup sees a coupon code: trimmed, upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a coupon code against a cart subtotal and computes the
// discount. It is read-only: recording a redemption is RecordRedemption's job.
//
// The six gates run in a fixed order and only the first failure is reported;
// checkout UI messaging depends on that ordering.
func (s *CouponService) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*transport.CouponValidation, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}
	if subtotal.IsNegative() {
		return nil, fmt.Errorf("%w: subtotal must be >= 0", ErrValidation)
	}

	normalized := NormalizeCode(code)

	coupon, err := s.Repo.GetCouponByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	switch {
	case !coupon.IsActive:
		return nil, ErrCouponInactive
	case coupon.ValidUntil != nil && coupon.ValidUntil.Before(now):
		return nil, ErrCouponExpired
	case coupon.ValidFrom != nil && coupon.ValidFrom.After(now):
		return nil, ErrCouponNotYetActive
	case coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit:
		return nil, ErrCouponExhausted
	case coupon.MinOrderValue.Valid && subtotal.LessThan(coupon.MinOrderValue.Decimal):
		return nil, fmt.Errorf("%w: minimum order value is %s", ErrBelowMinimumOrder, coupon.MinOrderValue.Decimal.StringFixed(2))
	}

	var discount decimal.Decimal
	if coupon.DiscountType == models.DiscountTypePercentage {
		discount = subtotal.Mul(coupon.DiscountValue).Div(hundred)
		if coupon.MaxDiscount.Valid && discount.GreaterThan(coupon.MaxDiscount.Decimal) {
			discount = coupon.MaxDiscount.Decimal
		}
	} else {
		discount = coupon.DiscountValue
	}
	// a coupon never produces a negative payable amount
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	percent := decimal.Zero
	if subtotal.IsPositive() {
		percent = discount.Div(subtotal).Mul(hundred)
	}

	// round once, at the end; finalAmount derives from the rounded discount
	// so the two fields never drift apart
	discount = discount.Round(2)
	return &transport.CouponValidation{
		Valid:           true,
		Code:            coupon.Code,
		DiscountType:    coupon.DiscountType,
		DiscountValue:   coupon.DiscountValue,
		Discount:        discount,
		DiscountPercent: percent.Round(2),
		FinalAmount:     subtotal.Sub(discount).Round(2),
	}, nil
}

// RecordRedemption bumps the coupon's usage counter. Order creation calls it
// once per applied coupon; Validate never does.
func (s *CouponService) RecordRedemption(ctx context.Context, code string) error {
	err := s.Repo.IncrementUsage(ctx, NormalizeCode(code))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCouponNotFound
	}
	if errors.Is(err, repo.ErrUsageExhausted) {
		return ErrCouponExhausted
	}
	return err
}

func (s *CouponService) Create(ctx context.Context, req transport.UpsertCouponRequest) (*models.Coupon, error) {
	coupon, err := couponFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.CreateCoupon(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	return s.Repo.ListCoupons(ctx)
}

func (s *CouponService) Update(ctx context.Context, id uint, req transport.UpsertCouponRequest) (*models.Coupon, error) {
	updated, err := couponFromRequest(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.Repo.GetCouponByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: coupon %d", ErrNotFound, id)
		}
		return nil, err
	}

	updated.ID = existing.ID
	updated.UsedCount = existing.UsedCount
	updated.CreatedAt = existing.CreatedAt
	if err := s.Repo.SaveCoupon(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *CouponService) Delete(ctx context.Context, id uint) error {
	err := s.Repo.DeleteCoupon(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: coupon %d", ErrNotFound, id)
	}
	return err
}

func couponFromRequest(req transport.UpsertCouponRequest) (*models.Coupon, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}
	if req.DiscountType != models.DiscountTypePercentage && req.DiscountType != models.DiscountTypeFixed {
		return nil, fmt.Errorf("%w: discount_type must be percentage or fixed", ErrValidation)
	}
	if !req.DiscountValue.IsPositive() {
		return nil, fmt.Errorf("%w: discount_value must be > 0", ErrValidation)
	}

	coupon := &models.Coupon{
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		IsActive:      true,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		UsageLimit:    req.UsageLimit,
	}
	if req.MaxDiscount != nil {
		coupon.MaxDiscount = decimal.NewNullDecimal(*req.MaxDiscount)
	}
	if req.MinOrderValue != nil {
		coupon.MinOrderValue = decimal.NewNullDecimal(*req.MinOrderValue)
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	return coupon, nil
}
