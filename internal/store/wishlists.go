package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
)

func CreateWishlist(ctx context.Context, db *sql.DB, userID int64, name string) (*models.Wishlist, error) {
	wishlist := &models.Wishlist{}

	query := `
		INSERT INTO wishlists (user_id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, user_id, name, created_at`

	err := db.QueryRowContext(ctx, query, userID, name).Scan(
		&wishlist.ID,
		&wishlist.UserID,
		&wishlist.Name,
		&wishlist.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "wishlists_user_id_name_key") {
			return nil, database.ErrDuplicateWishlist
		}
		return nil, fmt.Errorf("create wishlist: %w", err)
	}

	return wishlist, nil
}

func GetWishlist(ctx context.Context, db *sql.DB, id int64) (*models.Wishlist, error) {
	wishlist := &models.Wishlist{}

	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM wishlists WHERE id = $1`,
		id).Scan(
		&wishlist.ID,
		&wishlist.UserID,
		&wishlist.Name,
		&wishlist.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrWishlistNotFound
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT wishlist_id, product_id, created_at
		 FROM wishlist_items
		 WHERE wishlist_id = $1
		 ORDER BY created_at`,
		id)
	if err != nil {
		return nil, fmt.Errorf("get wishlist items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.WishlistItem
		err := rows.Scan(&item.WishlistID, &item.ProductID, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		wishlist.Items = append(wishlist.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return wishlist, nil
}

func ListWishlistsByUser(ctx context.Context, db *sql.DB, userID int64) ([]models.Wishlist, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at
		 FROM wishlists
		 WHERE user_id = $1
		 ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlists: %w", err)
	}
	defer rows.Close()

	var wishlists []models.Wishlist
	for rows.Next() {
		var wishlist models.Wishlist
		err := rows.Scan(
			&wishlist.ID,
			&wishlist.UserID,
			&wishlist.Name,
			&wishlist.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist: %w", err)
		}
		wishlists = append(wishlists, wishlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return wishlists, nil
}

// AddWishlistItem is idempotent. The composite primary key keeps duplicate
// membership rows out.
func AddWishlistItem(ctx context.Context, db *sql.DB, wishlistID, productID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO wishlist_items (wishlist_id, product_id, created_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (wishlist_id, product_id) DO NOTHING`,
		wishlistID, productID)
	if err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

func RemoveWishlistItem(ctx context.Context, db *sql.DB, wishlistID, productID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE wishlist_id = $1 AND product_id = $2`,
		wishlistID, productID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}

func DeleteWishlist(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM wishlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete wishlist: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrWishlistNotFound
	}

	return nil
}
