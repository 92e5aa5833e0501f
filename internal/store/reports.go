package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
)

// GetUserOrderTotals reads one row of the user_order_totals view. A user
// with no orders reports zero counts and totals, not nulls.
func GetUserOrderTotals(ctx context.Context, db *sql.DB, userID int64) (*models.UserOrderTotals, error) {
	totals := &models.UserOrderTotals{}

	query := `
		SELECT user_id, email, orders_count, total_spent
		FROM user_order_totals
		WHERE user_id = $1`

	err := db.QueryRowContext(ctx, query, userID).Scan(
		&totals.UserID,
		&totals.Email,
		&totals.OrdersCount,
		&totals.TotalSpent,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user order totals: %w", err)
	}

	return totals, nil
}

func ListUserOrderTotals(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_order_totals`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count user order totals: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT user_id, email, orders_count, total_spent
		FROM user_order_totals
		ORDER BY total_spent DESC, user_id
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list user order totals: %w", err)
	}
	defer rows.Close()

	var results []models.UserOrderTotals
	for rows.Next() {
		var totals models.UserOrderTotals
		err := rows.Scan(
			&totals.UserID,
			&totals.Email,
			&totals.OrdersCount,
			&totals.TotalSpent,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user order totals: %w", err)
		}
		results = append(results, totals)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return NewOffsetPage(results, total, page, pageSize), nil
}
