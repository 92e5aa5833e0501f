package integration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/safar/go-commerce-store/internal/models"
	"github.com/safar/go-commerce-store/internal/store"
	"github.com/shopspring/decimal"
)

// bcrypt cost for fixtures; the minimum keeps the suite fast.
const testBcryptCost = 4

func createTestUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), db, testBcryptCost, store.CreateUserRequest{
		Email:    email,
		Password: "s3cret-pass",
		Name:     "Test User",
	})
	if err != nil {
		t.Fatalf("Create user %s: %v", email, err)
	}
	return user
}

func createTestAddress(t *testing.T, db *sql.DB, userID *int64) *models.Address {
	t.Helper()

	address, err := store.CreateAddress(context.Background(), db, store.CreateAddressRequest{
		UserID:     userID,
		Recipient:  "Test Recipient",
		Line1:      "1 Test Street",
		City:       "Testville",
		PostalCode: "00100",
		Country:    "KE",
	})
	if err != nil {
		t.Fatalf("Create address: %v", err)
	}
	return address
}

func createTestProduct(t *testing.T, db *sql.DB, sku string, price int64, stock int) *models.Product {
	t.Helper()
	ctx := context.Background()

	product, err := store.CreateProduct(ctx, db, store.CreateProductRequest{
		SKU:   sku,
		Name:  "Product " + sku,
		Price: decimal.NewFromInt(price),
		Cost:  decimal.NewFromInt(price / 2),
	})
	if err != nil {
		t.Fatalf("Create product %s: %v", sku, err)
	}

	if stock > 0 {
		if err := store.Restock(ctx, db, product.ID, nil, stock); err != nil {
			t.Fatalf("Restock product %s: %v", sku, err)
		}
	}

	return product
}

func checkoutOneItem(t *testing.T, db *sql.DB, userID *int64, addressID, productID int64, quantity int) (*models.Order, error) {
	t.Helper()

	return store.Checkout(context.Background(), db, store.CheckoutRequest{
		UserID:            userID,
		BillingAddressID:  addressID,
		ShippingAddressID: addressID,
		Items: []store.CheckoutItem{
			{ProductID: productID, Quantity: quantity},
		},
	})
}
