package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
)

type CreateAddressRequest struct {
	UserID     *int64
	Recipient  string
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
}

func CreateAddress(ctx context.Context, db *sql.DB, req CreateAddressRequest) (*models.Address, error) {
	address := &models.Address{}
	var line2, region sql.NullString

	query := `
		INSERT INTO addresses (user_id, recipient, line1, line2, city, region, postal_code, country, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), $7, $8, NOW(), NOW())
		RETURNING id, user_id, recipient, line1, line2, city, region, postal_code, country, created_at, updated_at`

	err := db.QueryRowContext(ctx, query,
		req.UserID, req.Recipient, req.Line1, req.Line2, req.City, req.Region, req.PostalCode, req.Country,
	).Scan(
		&address.ID,
		&address.UserID,
		&address.Recipient,
		&address.Line1,
		&line2,
		&address.City,
		&region,
		&address.PostalCode,
		&address.Country,
		&address.CreatedAt,
		&address.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	address.Line2 = line2.String
	address.Region = region.String

	return address, nil
}

func GetAddress(ctx context.Context, db *sql.DB, id int64) (*models.Address, error) {
	address := &models.Address{}
	var line2, region sql.NullString

	query := `
		SELECT id, user_id, recipient, line1, line2, city, region, postal_code, country, created_at, updated_at
		FROM addresses
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&address.ID,
		&address.UserID,
		&address.Recipient,
		&address.Line1,
		&line2,
		&address.City,
		&region,
		&address.PostalCode,
		&address.Country,
		&address.CreatedAt,
		&address.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrAddressNotFound
		}
		return nil, fmt.Errorf("get address: %w", err)
	}

	address.Line2 = line2.String
	address.Region = region.String

	return address, nil
}

func ListAddressesByUser(ctx context.Context, db *sql.DB, userID int64) ([]models.Address, error) {
	query := `
		SELECT id, user_id, recipient, line1, line2, city, region, postal_code, country, created_at, updated_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY created_at`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []models.Address
	for rows.Next() {
		var address models.Address
		var line2, region sql.NullString
		err := rows.Scan(
			&address.ID,
			&address.UserID,
			&address.Recipient,
			&address.Line1,
			&line2,
			&address.City,
			&region,
			&address.PostalCode,
			&address.Country,
			&address.CreatedAt,
			&address.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		address.Line2 = line2.String
		address.Region = region.String
		addresses = append(addresses, address)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return addresses, nil
}
