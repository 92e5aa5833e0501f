package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
)

// CreatePayment opens a payment attempt for an order at the order's total.
func CreatePayment(ctx context.Context, db *sql.DB, orderID int64, method string) (*models.Payment, error) {
	payment := &models.Payment{}

	query := `
		INSERT INTO payments (order_id, payment_method, status, amount, created_at, updated_at)
		SELECT id, $2, $3, total_amount, NOW(), NOW()
		FROM orders WHERE id = $1
		RETURNING id, order_id, payment_method, status, amount, provider_txn_id, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, orderID, method, models.PaymentStatusInitiated).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.PaymentMethod,
		&payment.Status,
		&payment.Amount,
		&payment.ProviderTxnID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}

	return payment, nil
}

func GetPayment(ctx context.Context, db *sql.DB, id int64) (*models.Payment, error) {
	payment := &models.Payment{}

	query := `
		SELECT id, order_id, payment_method, status, amount, provider_txn_id, created_at, updated_at
		FROM payments
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.PaymentMethod,
		&payment.Status,
		&payment.Amount,
		&payment.ProviderTxnID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}

	return payment, nil
}

func ListPaymentsByOrder(ctx context.Context, db *sql.DB, orderID int64) ([]models.Payment, error) {
	query := `
		SELECT id, order_id, payment_method, status, amount, provider_txn_id, created_at, updated_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at`

	rows, err := db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var payment models.Payment
		err := rows.Scan(
			&payment.ID,
			&payment.OrderID,
			&payment.PaymentMethod,
			&payment.Status,
			&payment.Amount,
			&payment.ProviderTxnID,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return payments, nil
}

// CompletePayment records a successful provider callback: the payment moves
// to completed, the order to paid, and the reserved inventory is committed
// into a real stock decrement. One transaction end to end.
func CompletePayment(ctx context.Context, db *sql.DB, paymentID int64, providerTxnID string) error {
	return database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		orderID, err := lockInitiatedPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE payments
			 SET status = $1, provider_txn_id = $2, updated_at = NOW()
			 WHERE id = $3`,
			models.PaymentStatusCompleted, providerTxnID, paymentID)
		if err != nil {
			return fmt.Errorf("complete payment: %w", err)
		}

		items, err := orderItemQuantities(ctx, tx, orderID)
		if err != nil {
			return err
		}
		for productID, quantity := range items {
			if err := CommitReservation(ctx, tx, productID, quantity); err != nil {
				return err
			}
		}

		return updateOrderStatusTx(ctx, tx, orderID, models.OrderStatusPaid)
	})
}

// FailPayment records a failed provider callback and returns the order's
// reserved units to the available pool.
func FailPayment(ctx context.Context, db *sql.DB, paymentID int64, providerTxnID string) error {
	return database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		orderID, err := lockInitiatedPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE payments
			 SET status = $1, provider_txn_id = NULLIF($2, ''), updated_at = NOW()
			 WHERE id = $3`,
			models.PaymentStatusFailed, providerTxnID, paymentID)
		if err != nil {
			return fmt.Errorf("fail payment: %w", err)
		}

		items, err := orderItemQuantities(ctx, tx, orderID)
		if err != nil {
			return err
		}
		for productID, quantity := range items {
			if err := ReleaseReservation(ctx, tx, productID, quantity); err != nil {
				return err
			}
		}

		return nil
	})
}

// RefundPayment marks a completed payment refunded and moves the order to
// refunded. Stock is not returned automatically; restock is a separate,
// physical decision.
func RefundPayment(ctx context.Context, db *sql.DB, paymentID int64) error {
	return database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var orderID int64
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT order_id, status FROM payments WHERE id = $1 FOR UPDATE`,
			paymentID).Scan(&orderID, &status)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrPaymentNotFound
			}
			return fmt.Errorf("lock payment: %w", err)
		}
		if status != models.PaymentStatusCompleted {
			return fmt.Errorf("%w: payment is %s, not completed", database.ErrInvalidTransition, status)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2`,
			models.PaymentStatusRefunded, paymentID)
		if err != nil {
			return fmt.Errorf("refund payment: %w", err)
		}

		return updateOrderStatusTx(ctx, tx, orderID, models.OrderStatusRefunded)
	})
}

func lockInitiatedPayment(ctx context.Context, tx *sql.Tx, paymentID int64) (int64, error) {
	var orderID int64
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT order_id, status FROM payments WHERE id = $1 FOR UPDATE`,
		paymentID).Scan(&orderID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, database.ErrPaymentNotFound
		}
		return 0, fmt.Errorf("lock payment: %w", err)
	}
	if status != models.PaymentStatusInitiated {
		return 0, fmt.Errorf("%w: payment is %s, not initiated", database.ErrInvalidTransition, status)
	}
	return orderID, nil
}

func orderItemQuantities(ctx context.Context, tx *sql.Tx, orderID int64) (map[int64]int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = $1`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64]int)
	for rows.Next() {
		var productID int64
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[productID] += quantity
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}
