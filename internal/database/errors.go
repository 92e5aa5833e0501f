package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		case "23505", "23503", "23502", "23514":
			return ErrorClassPermanent
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
// When constraint is non-empty the violated constraint name must match too.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsRestrictViolation reports whether err is a foreign-key violation raised
// by deleting a parent row that dependents still reference.
func IsRestrictViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrAddressNotFound      = errors.New("address not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrSupplierNotFound     = errors.New("supplier not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrInventoryNotFound    = errors.New("inventory not found")
	ErrCouponNotFound       = errors.New("coupon not found")
	ErrCartNotFound         = errors.New("cart not found")
	ErrWishlistNotFound     = errors.New("wishlist not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrReviewNotFound       = errors.New("review not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrOptimisticLockFailed = errors.New("optimistic lock failed")
	ErrLockTimeout          = errors.New("lock timeout")
	ErrEmailTaken           = errors.New("email already registered")
	ErrDuplicateSKU         = errors.New("sku already exists")
	ErrDuplicateReview      = errors.New("user has already reviewed this product")
	ErrDuplicateWishlist    = errors.New("user already has a wishlist with this name")
	ErrProductReferenced    = errors.New("product is referenced by order history")
	ErrCouponExpired        = errors.New("coupon expired")
	ErrCouponExhausted      = errors.New("coupon usage limit reached")
	ErrCouponInactive       = errors.New("coupon inactive")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrCategoryCycle        = errors.New("category cannot become its own ancestor")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrMixedOrderSource     = errors.New("order items must come from the cart or the request, not both")
)
