package integration

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/store"
	"github.com/shopspring/decimal"
)

func TestDeleteProductRestrictedByOrderHistory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "restrict@example.com")
	address := createTestAddress(t, db, &user.ID)
	product := createTestProduct(t, db, "PROD-001", 100, 10)

	if _, err := checkoutOneItem(t, db, &user.ID, address.ID, product.ID, 1); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	err := store.DeleteProduct(ctx, db, product.ID)
	if !errors.Is(err, database.ErrProductReferenced) {
		t.Errorf("Expected restricted-delete error, got: %v", err)
	}

	if _, err := store.GetProduct(ctx, db, product.ID); err != nil {
		t.Errorf("Product should still exist: %v", err)
	}
}

func TestDeleteProductCascadesDependents(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "cascade@example.com")
	product := createTestProduct(t, db, "PROD-002", 100, 10)

	if _, err := store.AddProductImage(ctx, db, product.ID, "https://img.example/1.png", "", 0); err != nil {
		t.Fatalf("Add image: %v", err)
	}
	if _, err := store.SetProductAttribute(ctx, db, product.ID, "color", "red"); err != nil {
		t.Fatalf("Set attribute: %v", err)
	}

	cart, err := store.GetOrCreateUserCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if _, err := store.AddCartItem(ctx, db, cart.ID, product.ID, 2); err != nil {
		t.Fatalf("Add cart item: %v", err)
	}

	wishlist, err := store.CreateWishlist(ctx, db, user.ID, "default")
	if err != nil {
		t.Fatalf("Create wishlist: %v", err)
	}
	if err := store.AddWishlistItem(ctx, db, wishlist.ID, product.ID); err != nil {
		t.Fatalf("Add wishlist item: %v", err)
	}

	if err := store.DeleteProduct(ctx, db, product.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}

	for _, check := range []struct {
		name  string
		query string
	}{
		{"images", "SELECT COUNT(*) FROM product_images WHERE product_id = $1"},
		{"attributes", "SELECT COUNT(*) FROM product_attributes WHERE product_id = $1"},
		{"inventory", "SELECT COUNT(*) FROM inventory WHERE product_id = $1"},
		{"cart items", "SELECT COUNT(*) FROM cart_items WHERE product_id = $1"},
		{"wishlist items", "SELECT COUNT(*) FROM wishlist_items WHERE product_id = $1"},
	} {
		var count int
		if err := db.QueryRowContext(ctx, check.query, product.ID).Scan(&count); err != nil {
			t.Fatalf("Count %s: %v", check.name, err)
		}
		if count != 0 {
			t.Errorf("Expected 0 %s rows after delete, got %d", check.name, count)
		}
	}
}

func TestDuplicateSKU(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	createTestProduct(t, db, "PROD-003", 100, 0)

	_, err := store.CreateProduct(context.Background(), db, store.CreateProductRequest{
		SKU:   "PROD-003",
		Name:  "Duplicate",
		Price: decimal.NewFromInt(10),
	})
	if !errors.Is(err, database.ErrDuplicateSKU) {
		t.Errorf("Expected duplicate SKU error, got: %v", err)
	}
}

func TestConcurrentStockReservation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "PROD-004", 100, 10)

	concurrency := 5
	var wg sync.WaitGroup
	failures := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
				return store.ReserveStock(ctx, tx, product.ID, 2)
			})
			if err != nil {
				failures <- err
			}
		}()
	}

	wg.Wait()
	close(failures)

	successCount := concurrency
	for err := range failures {
		if err != nil {
			successCount--
		}
	}

	available, err := store.AvailableStock(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Available stock: %v", err)
	}

	expected := 10 - (successCount * 2)
	if available != expected {
		t.Errorf("Expected available %d, got %d", expected, available)
	}
}

func TestSetQuantityOptimistic(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "PROD-005", 100, 50)

	records, err := store.GetInventory(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get inventory: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 inventory row, got %d", len(records))
	}
	inv := records[0]

	if err := store.SetQuantityOptimistic(ctx, db, inv.ID, 40, inv.Version); err != nil {
		t.Fatalf("First update should succeed: %v", err)
	}

	err = store.SetQuantityOptimistic(ctx, db, inv.ID, 30, inv.Version)
	if !errors.Is(err, database.ErrOptimisticLockFailed) {
		t.Errorf("Expected optimistic lock failure, got: %v", err)
	}
}

func TestRestockAccumulates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "PROD-006", 100, 5)
	supplier, err := store.CreateSupplier(ctx, db, "Acme Supplies", "hello@acme.example")
	if err != nil {
		t.Fatalf("Create supplier: %v", err)
	}

	if err := store.Restock(ctx, db, product.ID, nil, 7); err != nil {
		t.Fatalf("Restock default row: %v", err)
	}
	if err := store.Restock(ctx, db, product.ID, &supplier.ID, 3); err != nil {
		t.Fatalf("Restock supplier row: %v", err)
	}

	available, err := store.AvailableStock(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Available stock: %v", err)
	}
	if available != 15 {
		t.Errorf("Expected 15 available across rows, got %d", available)
	}
}
