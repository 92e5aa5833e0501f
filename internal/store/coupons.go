package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
	"github.com/shopspring/decimal"
)

type CreateCouponRequest struct {
	Code          string
	DiscountType  string
	DiscountValue decimal.Decimal
	UsageLimit    *int
	ExpiresAt     *time.Time
}

func CreateCoupon(ctx context.Context, db *sql.DB, req CreateCouponRequest) (*models.Coupon, error) {
	coupon := &models.Coupon{}

	query := `
		INSERT INTO coupons (code, discount_type, discount_value, usage_limit, expires_at, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		RETURNING code, discount_type, discount_value, usage_limit, used_count, expires_at, active, created_at, updated_at`

	err := db.QueryRowContext(ctx, query,
		req.Code, req.DiscountType, req.DiscountValue, req.UsageLimit, req.ExpiresAt,
	).Scan(
		&coupon.Code,
		&coupon.DiscountType,
		&coupon.DiscountValue,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&coupon.ExpiresAt,
		&coupon.Active,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	return coupon, nil
}

func GetCoupon(ctx context.Context, db *sql.DB, code string) (*models.Coupon, error) {
	coupon := &models.Coupon{}

	query := `
		SELECT code, discount_type, discount_value, usage_limit, used_count, expires_at, active, created_at, updated_at
		FROM coupons
		WHERE code = $1`

	err := db.QueryRowContext(ctx, query, code).Scan(
		&coupon.Code,
		&coupon.DiscountType,
		&coupon.DiscountValue,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&coupon.ExpiresAt,
		&coupon.Active,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}

	return coupon, nil
}

// ValidateCoupon enforces the business rules the schema leaves out: active
// flag, expiry, and the usage limit.
func ValidateCoupon(coupon *models.Coupon, now time.Time) error {
	if !coupon.Active {
		return database.ErrCouponInactive
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return database.ErrCouponExpired
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return database.ErrCouponExhausted
	}
	return nil
}

// getCouponForUpdate locks the coupon row inside the checkout transaction so
// concurrent checkouts cannot both take the last use.
func getCouponForUpdate(ctx context.Context, tx *sql.Tx, code string) (*models.Coupon, error) {
	coupon := &models.Coupon{}

	query := `
		SELECT code, discount_type, discount_value, usage_limit, used_count, expires_at, active, created_at, updated_at
		FROM coupons
		WHERE code = $1
		FOR UPDATE`

	err := tx.QueryRowContext(ctx, query, code).Scan(
		&coupon.Code,
		&coupon.DiscountType,
		&coupon.DiscountValue,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&coupon.ExpiresAt,
		&coupon.Active,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCouponNotFound
		}
		return nil, fmt.Errorf("lock coupon: %w", err)
	}

	return coupon, nil
}

func redeemCoupon(ctx context.Context, tx *sql.Tx, code string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE coupons SET used_count = used_count + 1, updated_at = NOW() WHERE code = $1`,
		code)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	return nil
}
