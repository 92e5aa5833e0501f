package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
)

func CreateSupplier(ctx context.Context, db *sql.DB, name, contactEmail string) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	var email sql.NullString

	query := `
		INSERT INTO suppliers (name, contact_email, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NOW(), NOW())
		RETURNING id, name, contact_email, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, contactEmail).Scan(
		&supplier.ID,
		&supplier.Name,
		&email,
		&supplier.CreatedAt,
		&supplier.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}

	supplier.ContactEmail = email.String

	return supplier, nil
}

func GetSupplier(ctx context.Context, db *sql.DB, id int64) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	var email sql.NullString

	query := `
		SELECT id, name, contact_email, created_at, updated_at
		FROM suppliers
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&supplier.ID,
		&supplier.Name,
		&email,
		&supplier.CreatedAt,
		&supplier.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}

	supplier.ContactEmail = email.String

	return supplier, nil
}

func ListSuppliers(ctx context.Context, db *sql.DB) ([]models.Supplier, error) {
	query := `
		SELECT id, name, contact_email, created_at, updated_at
		FROM suppliers
		ORDER BY name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []models.Supplier
	for rows.Next() {
		var supplier models.Supplier
		var email sql.NullString
		err := rows.Scan(
			&supplier.ID,
			&supplier.Name,
			&email,
			&supplier.CreatedAt,
			&supplier.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		supplier.ContactEmail = email.String
		suppliers = append(suppliers, supplier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return suppliers, nil
}
