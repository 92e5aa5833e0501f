package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
)

// GetOrCreateUserCart returns the user's cart, creating it on first use.
func GetOrCreateUserCart(ctx context.Context, db *sql.DB, userID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	var token sql.NullString

	query := `
		INSERT INTO carts (user_id, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT DO NOTHING
		RETURNING id, user_id, session_token, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&token,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err == nil {
		cart.SessionToken = token.String
		return cart, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT id, user_id, session_token, created_at, updated_at
		 FROM carts WHERE user_id = $1
		 ORDER BY created_at LIMIT 1`,
		userID).Scan(
		&cart.ID,
		&cart.UserID,
		&token,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cart.SessionToken = token.String
	return cart, nil
}

// GetOrCreateSessionCart is the guest path, keyed by an opaque session token.
func GetOrCreateSessionCart(ctx context.Context, db *sql.DB, sessionToken string) (*models.Cart, error) {
	cart := &models.Cart{}
	var token sql.NullString

	query := `
		INSERT INTO carts (session_token, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (session_token) DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, session_token, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, sessionToken).Scan(
		&cart.ID,
		&cart.UserID,
		&token,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get or create session cart: %w", err)
	}

	cart.SessionToken = token.String
	return cart, nil
}

func GetCart(ctx context.Context, db *sql.DB, cartID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	var token sql.NullString

	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, session_token, created_at, updated_at
		 FROM carts WHERE id = $1`,
		cartID).Scan(
		&cart.ID,
		&cart.UserID,
		&token,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	cart.SessionToken = token.String

	rows, err := db.QueryContext(ctx,
		`SELECT cart_id, product_id, quantity, created_at, updated_at
		 FROM cart_items
		 WHERE cart_id = $1
		 ORDER BY created_at`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.CartItem
		err := rows.Scan(
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return cart, nil
}

// AddCartItem upserts on the (cart, product) composite key, accumulating
// quantity on repeat adds.
func AddCartItem(ctx context.Context, db *sql.DB, cartID, productID int64, quantity int) (*models.CartItem, error) {
	item := &models.CartItem{}

	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING cart_id, product_id, quantity, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, cartID, productID, quantity).Scan(
		&item.CartID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return item, nil
}

func UpdateCartItemQuantity(ctx context.Context, db *sql.DB, cartID, productID int64, quantity int) error {
	if quantity < 1 {
		return RemoveCartItem(ctx, db, cartID, productID)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1, updated_at = NOW()
		 WHERE cart_id = $2 AND product_id = $3`,
		quantity, cartID, productID)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartNotFound
	}

	return nil
}

func RemoveCartItem(ctx context.Context, db *sql.DB, cartID, productID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func ClearCart(ctx context.Context, db *sql.DB, cartID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func clearCartTx(ctx context.Context, tx *sql.Tx, cartID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
