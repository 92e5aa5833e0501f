package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Cost        decimal.Decimal
}

func CreateProduct(ctx context.Context, db *sql.DB, req CreateProductRequest) (*models.Product, error) {
	product := &models.Product{}

	query := `
		INSERT INTO products (sku, name, description, price, cost, active, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW(), 1)
		RETURNING id, sku, name, description, price, cost, active, created_at, updated_at, version`

	err := db.QueryRowContext(ctx, query, req.SKU, req.Name, req.Description, req.Price, req.Cost).Scan(
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
		if database.IsUniqueViolation(err, "products_sku_key") {
			return nil, database.ErrDuplicateSKU
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `
		SELECT id, sku, name, description, price, cost, active, created_at, updated_at, version
		FROM products
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
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
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func GetProductBySKU(ctx context.Context, db *sql.DB, sku string) (*models.Product, error) {
	product := &models.Product{}

	query := `
		SELECT id, sku, name, description, price, cost, active, created_at, updated_at, version
		FROM products
		WHERE sku = $1`

	err := db.QueryRowContext(ctx, query, sku).Scan(
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
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by sku: %w", err)
	}

	return product, nil
}

type UpdateProductRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	Active      bool
	Version     int
}

// UpdateProduct edits the live catalog row under optimistic locking. Order
// history keeps its own snapshots and is unaffected.
func UpdateProduct(ctx context.Context, db *sql.DB, id int64, req UpdateProductRequest) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET name = $1, description = $2, price = $3, cost = $4, active = $5,
		     updated_at = NOW(), version = version + 1
		 WHERE id = $6 AND version = $7`,
		req.Name, req.Description, req.Price, req.Cost, req.Active, id, req.Version)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrOptimisticLockFailed
	}

	return nil
}

// DeleteProduct removes a product and, via cascades, its images, attributes,
// inventory and cart/wishlist references. The delete is blocked by the
// engine while order_items still reference the product.
func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if database.IsRestrictViolation(err) {
			return database.ErrProductReferenced
		}
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

func ListProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, sku, name, description, price, cost, active, created_at, updated_at, version
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
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

	return NewOffsetPage(products, total, page, pageSize), nil
}

func AddProductImage(ctx context.Context, db *sql.DB, productID int64, url, altText string, position int) (*models.ProductImage, error) {
	image := &models.ProductImage{}
	var alt sql.NullString

	query := `
		INSERT INTO product_images (product_id, url, alt_text, position, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NOW())
		RETURNING id, product_id, url, alt_text, position, created_at`

	err := db.QueryRowContext(ctx, query, productID, url, altText, position).Scan(
		&image.ID,
		&image.ProductID,
		&image.URL,
		&alt,
		&image.Position,
		&image.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("add product image: %w", err)
	}

	image.AltText = alt.String

	return image, nil
}

func ListProductImages(ctx context.Context, db *sql.DB, productID int64) ([]models.ProductImage, error) {
	query := `
		SELECT id, product_id, url, alt_text, position, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY position, id`

	rows, err := db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	defer rows.Close()

	var images []models.ProductImage
	for rows.Next() {
		var image models.ProductImage
		var alt sql.NullString
		err := rows.Scan(
			&image.ID,
			&image.ProductID,
			&image.URL,
			&alt,
			&image.Position,
			&image.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		image.AltText = alt.String
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return images, nil
}

// SetProductAttribute upserts on (product_id, name).
func SetProductAttribute(ctx context.Context, db *sql.DB, productID int64, name, value string) (*models.ProductAttribute, error) {
	attribute := &models.ProductAttribute{}

	query := `
		INSERT INTO product_attributes (product_id, name, value, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id, name) DO UPDATE SET value = EXCLUDED.value
		RETURNING id, product_id, name, value, created_at`

	err := db.QueryRowContext(ctx, query, productID, name, value).Scan(
		&attribute.ID,
		&attribute.ProductID,
		&attribute.Name,
		&attribute.Value,
		&attribute.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("set product attribute: %w", err)
	}

	return attribute, nil
}

func ListProductAttributes(ctx context.Context, db *sql.DB, productID int64) ([]models.ProductAttribute, error) {
	query := `
		SELECT id, product_id, name, value, created_at
		FROM product_attributes
		WHERE product_id = $1
		ORDER BY name`

	rows, err := db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list product attributes: %w", err)
	}
	defer rows.Close()

	var attributes []models.ProductAttribute
	for rows.Next() {
		var attribute models.ProductAttribute
		err := rows.Scan(
			&attribute.ID,
			&attribute.ProductID,
			&attribute.Name,
			&attribute.Value,
			&attribute.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product attribute: %w", err)
		}
		attributes = append(attributes, attribute)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return attributes, nil
}
