package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCouponDiscount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   Coupon
		subtotal int64
		want     string
	}{
		{
			name:     "twenty percent of 100",
			coupon:   Coupon{DiscountType: DiscountTypePercent, DiscountValue: decimal.NewFromInt(20)},
			subtotal: 100,
			want:     "20",
		},
		{
			name:     "percent rounds to cents",
			coupon:   Coupon{DiscountType: DiscountTypePercent, DiscountValue: decimal.NewFromFloat(33.33)},
			subtotal: 10,
			want:     "3.33",
		},
		{
			name:     "fixed amount",
			coupon:   Coupon{DiscountType: DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5)},
			subtotal: 100,
			want:     "5",
		},
		{
			name:     "fixed capped at subtotal",
			coupon:   Coupon{DiscountType: DiscountTypeFixed, DiscountValue: decimal.NewFromInt(50)},
			subtotal: 30,
			want:     "30",
		},
		{
			name:     "negative value floors at zero",
			coupon:   Coupon{DiscountType: DiscountTypeFixed, DiscountValue: decimal.NewFromInt(-5)},
			subtotal: 30,
			want:     "0",
		},
		{
			name:     "unknown type gives nothing",
			coupon:   Coupon{DiscountType: "bogus", DiscountValue: decimal.NewFromInt(10)},
			subtotal: 100,
			want:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coupon.Discount(decimal.NewFromInt(tt.subtotal))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{OrderStatusPending, OrderStatusPaid},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusShipped},
		{OrderStatusPaid, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusRefunded},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusRefunded},
		{OrderStatusDelivered, OrderStatusRefunded},
	}
	for _, pair := range allowed {
		assert.True(t, CanTransition(pair[0], pair[1]), "%s -> %s should be allowed", pair[0], pair[1])
	}

	denied := [][2]string{
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusPending, OrderStatusRefunded},
		{OrderStatusPaid, OrderStatusPending},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusCancelled, OrderStatusPaid},
		{OrderStatusRefunded, OrderStatusPaid},
		{OrderStatusDelivered, OrderStatusShipped},
	}
	for _, pair := range denied {
		assert.False(t, CanTransition(pair[0], pair[1]), "%s -> %s should be denied", pair[0], pair[1])
	}
}

func TestInventoryAvailable(t *testing.T) {
	assert.Equal(t, 7, Inventory{Quantity: 10, Reserved: 3}.Available())
	assert.Equal(t, 0, Inventory{Quantity: 5, Reserved: 5}.Available())
	assert.Equal(t, 10, Inventory{Quantity: 10}.Available())
}
