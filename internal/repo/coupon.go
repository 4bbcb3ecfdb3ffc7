package repo

import (
	"context"
	"errors"

	"github.com/frunko/frunko/internal/models"
	"gorm.io/gorm"
)

// ErrUsageExhausted is reported by IncrementUsage when the guarded update
// matched a coupon whose usage limit is already spent.
var ErrUsageExhausted = errors.New("usage limit exhausted")

func (r *GormRepo) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.DB.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormRepo) GetCouponByID(ctx context.Context, id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.DB.WithContext(ctx).First(&coupon, id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormRepo) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	return r.DB.WithContext(ctx).Create(coupon).Error
}

func (r *GormRepo) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *GormRepo) SaveCoupon(ctx context.Context, coupon *models.Coupon) error {
	return r.DB.WithContext(ctx).Save(coupon).Error
}

func (r *GormRepo) DeleteCoupon(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Coupon{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementUsage records one redemption. The WHERE clause keeps
// used_count <= usage_limit under concurrent redemptions: the increment is a
// single guarded statement, not a read-then-write.
func (r *GormRepo) IncrementUsage(ctx context.Context, code string) error {
	res := r.DB.WithContext(ctx).Model(&models.Coupon{}).
		Where("code = ? AND (usage_limit IS NULL OR used_count < usage_limit)", code).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.DB.WithContext(ctx).Model(&models.Coupon{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrUsageExhausted
	}
	return nil
}
