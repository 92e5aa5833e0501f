package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
)

// Restock adds quantity through the restock_product procedure, creating the
// inventory row on first use.
func Restock(ctx context.Context, db *sql.DB, productID int64, supplierID *int64, quantity int) error {
	_, err := db.ExecContext(ctx, `CALL restock_product($1, $2, $3)`, productID, supplierID, quantity)
	if err != nil {
		return fmt.Errorf("restock product %d: %w", productID, err)
	}
	return nil
}

func GetInventory(ctx context.Context, db *sql.DB, productID int64) ([]models.Inventory, error) {
	query := `
		SELECT id, product_id, supplier_id, quantity, reserved, created_at, updated_at, version
		FROM inventory
		WHERE product_id = $1
		ORDER BY id`

	rows, err := db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	defer rows.Close()

	var records []models.Inventory
	for rows.Next() {
		var inv models.Inventory
		err := rows.Scan(
			&inv.ID,
			&inv.ProductID,
			&inv.SupplierID,
			&inv.Quantity,
			&inv.Reserved,
			&inv.CreatedAt,
			&inv.UpdatedAt,
			&inv.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		records = append(records, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

// AvailableStock sums quantity minus reserved across a product's inventory
// rows. A product with no rows has zero available.
func AvailableStock(ctx context.Context, db *sql.DB, productID int64) (int, error) {
	var available int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity - reserved), 0) FROM inventory WHERE product_id = $1`,
		productID).Scan(&available)
	if err != nil {
		return 0, fmt.Errorf("available stock: %w", err)
	}
	return available, nil
}

// ReserveStock locks a product's inventory rows and increments reserved
// counts to cover quantity, spreading across rows as needed. It must run
// inside the checkout transaction so the reservation and the order commit
// or roll back together.
func ReserveStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, quantity, reserved
		 FROM inventory
		 WHERE product_id = $1
		 ORDER BY id
		 FOR UPDATE`,
		productID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "55P03" {
			return database.ErrLockTimeout
		}
		return fmt.Errorf("lock inventory for product %d: %w", productID, err)
	}

	type invRow struct {
		id        int64
		available int
	}
	var locked []invRow
	available := 0
	for rows.Next() {
		var r invRow
		var qty, reserved int
		if err := rows.Scan(&r.id, &qty, &reserved); err != nil {
			rows.Close()
			return fmt.Errorf("scan inventory: %w", err)
		}
		r.available = qty - reserved
		available += r.available
		locked = append(locked, r)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close inventory rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	if available < quantity {
		return database.ErrInsufficientStock
	}

	remaining := quantity
	for _, r := range locked {
		if remaining == 0 {
			break
		}
		take := r.available
		if take > remaining {
			take = remaining
		}
		if take == 0 {
			continue
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE inventory
			 SET reserved = reserved + $1, updated_at = NOW(), version = version + 1
			 WHERE id = $2`,
			take, r.id)
		if err != nil {
			return fmt.Errorf("reserve inventory row %d: %w", r.id, err)
		}
		remaining -= take
	}

	return nil
}

// ReleaseReservation returns reserved units to the available pool, e.g. on
// payment failure or reservation expiry.
func ReleaseReservation(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, reserved
		 FROM inventory
		 WHERE product_id = $1 AND reserved > 0
		 ORDER BY id
		 FOR UPDATE`,
		productID)
	if err != nil {
		return fmt.Errorf("lock inventory for product %d: %w", productID, err)
	}

	type invRow struct {
		id       int64
		reserved int
	}
	var locked []invRow
	for rows.Next() {
		var r invRow
		if err := rows.Scan(&r.id, &r.reserved); err != nil {
			rows.Close()
			return fmt.Errorf("scan inventory: %w", err)
		}
		locked = append(locked, r)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close inventory rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	remaining := quantity
	for _, r := range locked {
		if remaining == 0 {
			break
		}
		release := r.reserved
		if release > remaining {
			release = remaining
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE inventory
			 SET reserved = reserved - $1, updated_at = NOW(), version = version + 1
			 WHERE id = $2`,
			release, r.id)
		if err != nil {
			return fmt.Errorf("release inventory row %d: %w", r.id, err)
		}
		remaining -= release
	}

	if remaining > 0 {
		return fmt.Errorf("release reservation: %d units were not reserved", remaining)
	}

	return nil
}

// CommitReservation converts reserved units into a real stock decrement
// once payment has completed.
func CommitReservation(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, reserved
		 FROM inventory
		 WHERE product_id = $1 AND reserved > 0
		 ORDER BY id
		 FOR UPDATE`,
		productID)
	if err != nil {
		return fmt.Errorf("lock inventory for product %d: %w", productID, err)
	}

	type invRow struct {
		id       int64
		reserved int
	}
	var locked []invRow
	for rows.Next() {
		var r invRow
		if err := rows.Scan(&r.id, &r.reserved); err != nil {
			rows.Close()
			return fmt.Errorf("scan inventory: %w", err)
		}
		locked = append(locked, r)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close inventory rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	remaining := quantity
	for _, r := range locked {
		if remaining == 0 {
			break
		}
		commit := r.reserved
		if commit > remaining {
			commit = remaining
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE inventory
			 SET quantity = quantity - $1, reserved = reserved - $1,
			     updated_at = NOW(), version = version + 1
			 WHERE id = $2`,
			commit, r.id)
		if err != nil {
			return fmt.Errorf("commit inventory row %d: %w", r.id, err)
		}
		remaining -= commit
	}

	if remaining > 0 {
		return fmt.Errorf("commit reservation: %d units were not reserved", remaining)
	}

	return nil
}

// SetQuantityOptimistic is the lock-free stocktake path: compare-and-swap on
// the version column.
func SetQuantityOptimistic(ctx context.Context, db *sql.DB, inventoryID int64, quantity, version int) error {
	result, err := db.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND version = $3`,
		quantity, inventoryID, version)
	if err != nil {
		return fmt.Errorf("set inventory quantity: %w", err)
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
