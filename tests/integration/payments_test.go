package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
	"github.com/safar/go-commerce-store/internal/store"
)

func TestCompletePaymentCommitsStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "payer@example.com")
	address := createTestAddress(t, db, &user.ID)
	product := createTestProduct(t, db, "PAY-SKU-001", 40, 20)

	order, err := checkoutOneItem(t, db, &user.ID, address.ID, product.ID, 3)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	payment, err := store.CreatePayment(ctx, db, order.ID, models.PaymentMethodCard)
	if err != nil {
		t.Fatalf("Create payment: %v", err)
	}
	if payment.Status != models.PaymentStatusInitiated {
		t.Errorf("Expected initiated payment, got %s", payment.Status)
	}
	if !payment.Amount.Equal(order.TotalAmount) {
		t.Errorf("Payment amount %s should match order total %s", payment.Amount, order.TotalAmount)
	}

	if err := store.CompletePayment(ctx, db, payment.ID, "txn-abc-123"); err != nil {
		t.Fatalf("Complete payment: %v", err)
	}

	after, err := store.GetPayment(ctx, db, payment.ID)
	if err != nil {
		t.Fatalf("Get payment: %v", err)
	}
	if after.Status != models.PaymentStatusCompleted {
		t.Errorf("Expected completed payment, got %s", after.Status)
	}
	if after.ProviderTxnID == nil || *after.ProviderTxnID != "txn-abc-123" {
		t.Errorf("Provider txn id not recorded: %v", after.ProviderTxnID)
	}

	paid, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if paid.Status != models.OrderStatusPaid {
		t.Errorf("Expected paid order, got %s", paid.Status)
	}

	// The reservation became a real decrement: quantity 17, reserved 0.
	inventory, err := store.GetInventory(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get inventory: %v", err)
	}
	if len(inventory) != 1 {
		t.Fatalf("Expected 1 inventory row, got %d", len(inventory))
	}
	if inventory[0].Quantity != 17 || inventory[0].Reserved != 0 {
		t.Errorf("Expected quantity 17 reserved 0, got %d/%d",
			inventory[0].Quantity, inventory[0].Reserved)
	}
}

func TestFailPaymentReleasesStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "failed-payer@example.com")
	address := createTestAddress(t, db, &user.ID)
	product := createTestProduct(t, db, "PAY-SKU-002", 40, 10)

	order, err := checkoutOneItem(t, db, &user.ID, address.ID, product.ID, 4)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	available, err := store.AvailableStock(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Available stock: %v", err)
	}
	if available != 6 {
		t.Fatalf("Expected 6 available after reservation, got %d", available)
	}

	payment, err := store.CreatePayment(ctx, db, order.ID, models.PaymentMethodMobileMoney)
	if err != nil {
		t.Fatalf("Create payment: %v", err)
	}

	if err := store.FailPayment(ctx, db, payment.ID, "txn-declined"); err != nil {
		t.Fatalf("Fail payment: %v", err)
	}

	available, err = store.AvailableStock(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Available stock: %v", err)
	}
	if available != 10 {
		t.Errorf("Expected full 10 available after release, got %d", available)
	}

	// A failed payment cannot be completed afterwards.
	err = store.CompletePayment(ctx, db, payment.ID, "txn-late")
	if !errors.Is(err, database.ErrInvalidTransition) {
		t.Errorf("Expected invalid transition completing a failed payment, got: %v", err)
	}
}

func TestRefundPayment(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "refundee@example.com")
	address := createTestAddress(t, db, &user.ID)
	product := createTestProduct(t, db, "PAY-SKU-003", 40, 10)

	order, err := checkoutOneItem(t, db, &user.ID, address.ID, product.ID, 1)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	payment, err := store.CreatePayment(ctx, db, order.ID, models.PaymentMethodCard)
	if err != nil {
		t.Fatalf("Create payment: %v", err)
	}

	// Refund before completion is rejected.
	if err := store.RefundPayment(ctx, db, payment.ID); !errors.Is(err, database.ErrInvalidTransition) {
		t.Errorf("Expected invalid transition refunding an initiated payment, got: %v", err)
	}

	if err := store.CompletePayment(ctx, db, payment.ID, "txn-ok"); err != nil {
		t.Fatalf("Complete payment: %v", err)
	}
	if err := store.RefundPayment(ctx, db, payment.ID); err != nil {
		t.Fatalf("Refund payment: %v", err)
	}

	after, err := store.GetPayment(ctx, db, payment.ID)
	if err != nil {
		t.Fatalf("Get payment: %v", err)
	}
	if after.Status != models.PaymentStatusRefunded {
		t.Errorf("Expected refunded payment, got %s", after.Status)
	}

	refunded, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if refunded.Status != models.OrderStatusRefunded {
		t.Errorf("Expected refunded order, got %s", refunded.Status)
	}
}

func TestPaymentsDeletedWithOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "cascade-pay@example.com")
	address := createTestAddress(t, db, &user.ID)
	product := createTestProduct(t, db, "PAY-SKU-004", 40, 10)

	order, err := checkoutOneItem(t, db, &user.ID, address.ID, product.ID, 1)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	payment, err := store.CreatePayment(ctx, db, order.ID, models.PaymentMethodCard)
	if err != nil {
		t.Fatalf("Create payment: %v", err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, order.ID); err != nil {
		t.Fatalf("Delete order: %v", err)
	}

	if _, err := store.GetPayment(ctx, db, payment.ID); !errors.Is(err, database.ErrPaymentNotFound) {
		t.Errorf("Expected payment gone with its order, got: %v", err)
	}
}
