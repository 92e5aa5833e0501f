package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
)

// CreateReview inserts a rating. A user may rate a given product at most
// once; the (product_id, user_id) unique constraint enforces it.
func CreateReview(ctx context.Context, db *sql.DB, productID, userID int64, rating int, comment string) (*models.Review, error) {
	review := &models.Review{}
	var text sql.NullString

	query := `
		INSERT INTO reviews (product_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW(), NOW())
		RETURNING id, product_id, user_id, rating, comment, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, productID, userID, rating, comment).Scan(
		&review.ID,
		&review.ProductID,
		&review.UserID,
		&review.Rating,
		&text,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "reviews_product_id_user_id_key") {
			return nil, database.ErrDuplicateReview
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	review.Comment = text.String

	return review, nil
}

func GetReview(ctx context.Context, db *sql.DB, id int64) (*models.Review, error) {
	review := &models.Review{}
	var text sql.NullString

	query := `
		SELECT id, product_id, user_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.ProductID,
		&review.UserID,
		&review.Rating,
		&text,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	review.Comment = text.String

	return review, nil
}

func ListReviewsByProduct(ctx context.Context, db *sql.DB, productID int64, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE product_id = $1`,
		productID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, product_id, user_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := db.QueryContext(ctx, query, productID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		var text sql.NullString
		err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.UserID,
			&review.Rating,
			&text,
			&review.CreatedAt,
			&review.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		review.Comment = text.String
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return NewOffsetPage(reviews, total, page, pageSize), nil
}

func DeleteReview(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrReviewNotFound
	}

	return nil
}
