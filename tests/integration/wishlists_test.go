package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/store"
)

func TestWishlistLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "wisher@example.com")
	product := createTestProduct(t, db, "WISH-SKU-001", 30, 0)

	wishlist, err := store.CreateWishlist(ctx, db, user.ID, "Birthday")
	if err != nil {
		t.Fatalf("Create wishlist: %v", err)
	}

	if err := store.AddWishlistItem(ctx, db, wishlist.ID, product.ID); err != nil {
		t.Fatalf("Add item: %v", err)
	}
	// Adding the same product again is a no-op, not an error.
	if err := store.AddWishlistItem(ctx, db, wishlist.ID, product.ID); err != nil {
		t.Fatalf("Repeat add: %v", err)
	}

	loaded, err := store.GetWishlist(ctx, db, wishlist.ID)
	if err != nil {
		t.Fatalf("Get wishlist: %v", err)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(loaded.Items))
	}

	if err := store.RemoveWishlistItem(ctx, db, wishlist.ID, product.ID); err != nil {
		t.Fatalf("Remove item: %v", err)
	}
	if err := store.DeleteWishlist(ctx, db, wishlist.ID); err != nil {
		t.Fatalf("Delete wishlist: %v", err)
	}
	if _, err := store.GetWishlist(ctx, db, wishlist.ID); !errors.Is(err, database.ErrWishlistNotFound) {
		t.Errorf("Expected wishlist gone, got: %v", err)
	}
}

func TestWishlistNamesUniquePerUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	alice := createTestUser(t, db, "alice-wish@example.com")
	bob := createTestUser(t, db, "bob-wish@example.com")

	if _, err := store.CreateWishlist(ctx, db, alice.ID, "Favorites"); err != nil {
		t.Fatalf("First wishlist: %v", err)
	}
	if _, err := store.CreateWishlist(ctx, db, alice.ID, "Favorites"); !errors.Is(err, database.ErrDuplicateWishlist) {
		t.Errorf("Expected duplicate wishlist error, got: %v", err)
	}
	// The same name under a different user is fine.
	if _, err := store.CreateWishlist(ctx, db, bob.ID, "Favorites"); err != nil {
		t.Errorf("Same name for another user should succeed: %v", err)
	}
}
