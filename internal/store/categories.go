package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
)

func CreateCategory(ctx context.Context, db *sql.DB, slug, name string, parentID *int64) (*models.Category, error) {
	category := &models.Category{}

	query := `
		INSERT INTO categories (slug, name, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, slug, name, parent_id, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, slug, name, parentID).Scan(
		&category.ID,
		&category.Slug,
		&category.Name,
		&category.ParentID,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	return category, nil
}

func GetCategory(ctx context.Context, db *sql.DB, id int64) (*models.Category, error) {
	category := &models.Category{}

	query := `
		SELECT id, slug, name, parent_id, created_at, updated_at
		FROM categories
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Slug,
		&category.Name,
		&category.ParentID,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	return category, nil
}

func GetCategoryBySlug(ctx context.Context, db *sql.DB, slug string) (*models.Category, error) {
	category := &models.Category{}

	query := `
		SELECT id, slug, name, parent_id, created_at, updated_at
		FROM categories
		WHERE slug = $1`

	err := db.QueryRowContext(ctx, query, slug).Scan(
		&category.ID,
		&category.Slug,
		&category.Name,
		&category.ParentID,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by slug: %w", err)
	}

	return category, nil
}

func ListChildCategories(ctx context.Context, db *sql.DB, parentID *int64) ([]models.Category, error) {
	query := `
		SELECT id, slug, name, parent_id, created_at, updated_at
		FROM categories
		WHERE parent_id IS NOT DISTINCT FROM $1
		ORDER BY name`

	rows, err := db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		err := rows.Scan(
			&category.ID,
			&category.Slug,
			&category.Name,
			&category.ParentID,
			&category.CreatedAt,
			&category.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}

// SetCategoryParent reparents a category. The schema cannot prevent a node
// from becoming its own ancestor, so the ancestor chain is walked first.
func SetCategoryParent(ctx context.Context, db *sql.DB, id int64, parentID *int64) error {
	if parentID != nil {
		if *parentID == id {
			return database.ErrCategoryCycle
		}

		ancestor := parentID
		for ancestor != nil {
			var next *int64
			err := db.QueryRowContext(ctx,
				`SELECT parent_id FROM categories WHERE id = $1`,
				*ancestor).Scan(&next)
			if err != nil {
				if err == sql.ErrNoRows {
					return database.ErrCategoryNotFound
				}
				return fmt.Errorf("walk ancestors: %w", err)
			}
			if next != nil && *next == id {
				return database.ErrCategoryCycle
			}
			ancestor = next
		}
	}

	result, err := db.ExecContext(ctx,
		`UPDATE categories SET parent_id = $1, updated_at = NOW() WHERE id = $2`,
		parentID, id)
	if err != nil {
		return fmt.Errorf("set category parent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCategoryNotFound
	}

	return nil
}

// DeleteCategory removes a node. Children are reparented to root by the
// SET NULL cascade, never deleted.
func DeleteCategory(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCategoryNotFound
	}

	return nil
}

func AssignProductCategory(ctx context.Context, db *sql.DB, productID, categoryID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO product_categories (product_id, category_id)
		 VALUES ($1, $2)
		 ON CONFLICT (product_id, category_id) DO NOTHING`,
		productID, categoryID)
	if err != nil {
		return fmt.Errorf("assign product category: %w", err)
	}
	return nil
}

func UnassignProductCategory(ctx context.Context, db *sql.DB, productID, categoryID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM product_categories WHERE product_id = $1 AND category_id = $2`,
		productID, categoryID)
	if err != nil {
		return fmt.Errorf("unassign product category: %w", err)
	}
	return nil
}

func ListProductsByCategory(ctx context.Context, db *sql.DB, categoryID int64) ([]models.Product, error) {
	query := `
		SELECT p.id, p.sku, p.name, p.description, p.price, p.cost, p.active, p.created_at, p.updated_at, p.version
		FROM products p
		JOIN product_categories pc ON pc.product_id = p.id
		WHERE pc.category_id = $1
		ORDER BY p.name`

	rows, err := db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID,
			&product.SKU,
			&product.Name,
			&product.Description,
			&product.Price,
			&product.Cost,
			&product.Active,
			&product.CreatedAt,
			&product.UpdatedAt,
			&product.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}
