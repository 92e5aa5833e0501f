package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/store"
)

func TestDeleteCategoryReparentsChildren(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	parent, err := store.CreateCategory(ctx, db, "electronics", "Electronics", nil)
	if err != nil {
		t.Fatalf("Create parent: %v", err)
	}
	child, err := store.CreateCategory(ctx, db, "phones", "Phones", &parent.ID)
	if err != nil {
		t.Fatalf("Create child: %v", err)
	}

	if err := store.DeleteCategory(ctx, db, parent.ID); err != nil {
		t.Fatalf("Delete parent: %v", err)
	}

	got, err := store.GetCategory(ctx, db, child.ID)
	if err != nil {
		t.Fatalf("Child should survive parent deletion: %v", err)
	}
	if got.ParentID != nil {
		t.Errorf("Child parent reference should be cleared, got %v", *got.ParentID)
	}
}

func TestSetCategoryParentRejectsCycles(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	a, err := store.CreateCategory(ctx, db, "a", "A", nil)
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := store.CreateCategory(ctx, db, "b", "B", &a.ID)
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}
	c, err := store.CreateCategory(ctx, db, "c", "C", &b.ID)
	if err != nil {
		t.Fatalf("Create c: %v", err)
	}

	if err := store.SetCategoryParent(ctx, db, a.ID, &c.ID); !errors.Is(err, database.ErrCategoryCycle) {
		t.Errorf("Expected cycle error, got: %v", err)
	}
	if err := store.SetCategoryParent(ctx, db, a.ID, &a.ID); !errors.Is(err, database.ErrCategoryCycle) {
		t.Errorf("Expected self-cycle error, got: %v", err)
	}

	// moving c under a directly is legal
	if err := store.SetCategoryParent(ctx, db, c.ID, &a.ID); err != nil {
		t.Errorf("Legal reparent failed: %v", err)
	}
}

func TestProductCategoryJunction(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category, err := store.CreateCategory(ctx, db, "books", "Books", nil)
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}
	product := createTestProduct(t, db, "CAT-SKU-001", 20, 0)

	// duplicate assignment is a no-op thanks to the composite key
	if err := store.AssignProductCategory(ctx, db, product.ID, category.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := store.AssignProductCategory(ctx, db, product.ID, category.ID); err != nil {
		t.Fatalf("Repeat assign: %v", err)
	}

	products, err := store.ListProductsByCategory(ctx, db, category.ID)
	if err != nil {
		t.Fatalf("List products by category: %v", err)
	}
	if len(products) != 1 {
		t.Errorf("Expected 1 product in category, got %d", len(products))
	}
}
