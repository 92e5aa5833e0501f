package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/safar/go-commerce-store/internal/database"
	"github.com/safar/go-commerce-store/internal/models"
	"github.com/shopspring/decimal"
)

type CheckoutItem struct {
	ProductID int64
	Quantity  int
}

type CheckoutRequest struct {
	// UserID is nil for guest checkout.
	UserID            *int64
	BillingAddressID  int64
	ShippingAddressID int64
	CouponCode        *string
	Items             []CheckoutItem
	// CartID, when set, supplies the items (Items must be empty) and the
	// cart is cleared in the same transaction as the order insert.
	CartID *int64
	// MaxRetries bounds serialization retries per attempt; NumberRetries
	// bounds attempts with a fresh order number. Zero means the default of 3.
	MaxRetries    int
	NumberRetries int
	// NewOrderNumber overrides the order number generator. Nil uses the
	// timestamp plus random suffix scheme.
	NewOrderNumber func(time.Time) string
}

// Checkout creates an order: it reserves inventory, snapshots product
// identity and price into order items, applies the coupon, and inserts the
// order, all in one SERIALIZABLE transaction. Order-number collisions abort
// the transaction via the unique constraint and are retried with a fresh
// number.
func Checkout(ctx context.Context, db *sql.DB, req CheckoutRequest) (*models.Order, error) {
	var order *models.Order
	var lastErr error

	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	numberRetries := req.NumberRetries
	if numberRetries <= 0 {
		numberRetries = 3
	}
	newNumber := req.NewOrderNumber
	if newNumber == nil {
		newNumber = generateOrderNumber
	}

	for attempt := 0; attempt < numberRetries; attempt++ {
		orderNumber := newNumber(time.Now())

		err := database.WithRetry(ctx, db, database.TxOptions{
			IsolationLevel: sql.LevelSerializable,
			MaxRetries:     maxRetries,
		}, func(tx *sql.Tx) error {
			created, err := checkoutTx(ctx, tx, req, orderNumber)
			if err != nil {
				return err
			}
			order = created
			return nil
		})
		if err == nil {
			return order, nil
		}
		if !database.IsUniqueViolation(err, "orders_order_number_key") {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("order number collision persisted: %w", lastErr)
}

func checkoutTx(ctx context.Context, tx *sql.Tx, req CheckoutRequest, orderNumber string) (*models.Order, error) {
	if req.UserID != nil {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)",
			*req.UserID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check user exists: %w", err)
		}
		if !exists {
			return nil, database.ErrUserNotFound
		}
	}

	items := req.Items
	if req.CartID != nil {
		if len(items) > 0 {
			return nil, database.ErrMixedOrderSource
		}
		cartItems, err := cartItemsForUpdate(ctx, tx, *req.CartID)
		if err != nil {
			return nil, err
		}
		items = cartItems
	}
	if len(items) == 0 {
		return nil, database.ErrEmptyOrder
	}

	type snapshot struct {
		sku       string
		name      string
		unitPrice decimal.Decimal
		quantity  int
		lineTotal decimal.Decimal
		productID int64
	}

	subtotal := decimal.Zero
	snapshots := make([]snapshot, 0, len(items))

	for _, item := range items {
		var snap snapshot
		snap.productID = item.ProductID
		snap.quantity = item.Quantity

		err := tx.QueryRowContext(ctx,
			`SELECT sku, name, price FROM products WHERE id = $1 AND active`,
			item.ProductID).Scan(&snap.sku, &snap.name, &snap.unitPrice)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, database.ErrProductNotFound
			}
			return nil, fmt.Errorf("snapshot product %d: %w", item.ProductID, err)
		}

		if err := ReserveStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}

		snap.lineTotal = snap.unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(snap.lineTotal)
		snapshots = append(snapshots, snap)
	}

	discount := decimal.Zero
	if req.CouponCode != nil {
		coupon, err := getCouponForUpdate(ctx, tx, *req.CouponCode)
		if err != nil {
			return nil, err
		}
		if err := ValidateCoupon(coupon, time.Now()); err != nil {
			return nil, err
		}
		discount = coupon.Discount(subtotal)
		if err := redeemCoupon(ctx, tx, coupon.Code); err != nil {
			return nil, err
		}
	}

	total := subtotal.Sub(discount)

	var orderID int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, order_number, status, billing_address_id, shipping_address_id,
		                     coupon_code, subtotal, discount_amount, total_amount, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW(), 1)
		 RETURNING id`,
		req.UserID, orderNumber, models.OrderStatusPending,
		req.BillingAddressID, req.ShippingAddressID,
		req.CouponCode, subtotal, discount, total).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, snap := range snapshots {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, sku, name, unit_price, quantity, line_total, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			orderID, snap.productID, snap.sku, snap.name, snap.unitPrice, snap.quantity, snap.lineTotal)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
	}

	if req.CartID != nil {
		if err := clearCartTx(ctx, tx, *req.CartID); err != nil {
			return nil, err
		}
	}

	order := &models.Order{ID: orderID}
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, order_number, status, billing_address_id, shipping_address_id,
		        coupon_code, subtotal, discount_amount, total_amount, created_at, updated_at, version
		 FROM orders WHERE id = $1`,
		orderID).Scan(
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.BillingAddressID,
		&order.ShippingAddressID,
		&order.CouponCode,
		&order.Subtotal,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch created order: %w", err)
	}

	return order, nil
}

func cartItemsForUpdate(ctx context.Context, tx *sql.Tx, cartID int64) ([]CheckoutItem, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity
		 FROM cart_items
		 WHERE cart_id = $1
		 ORDER BY product_id
		 FOR UPDATE`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	var items []CheckoutItem
	for rows.Next() {
		var item CheckoutItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, user_id, order_number, status, billing_address_id, shipping_address_id,
		       coupon_code, subtotal, discount_amount, total_amount, created_at, updated_at, version
		FROM orders
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.BillingAddressID,
		&order.ShippingAddressID,
		&order.CouponCode,
		&order.Subtotal,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := listOrderItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func GetOrderByNumber(ctx context.Context, db *sql.DB, orderNumber string) (*models.Order, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE order_number = $1`,
		orderNumber).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}

	return GetOrder(ctx, db, id)
}

func listOrderItems(ctx context.Context, db *sql.DB, orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, sku, name, unit_price, quantity, line_total, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.SKU,
			&item.Name,
			&item.UnitPrice,
			&item.Quantity,
			&item.LineTotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// UpdateOrderStatus moves an order along the status graph. Transitions the
// graph does not allow fail with ErrInvalidTransition; the schema itself
// imposes no ordering.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id int64, newStatus string) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return updateOrderStatusTx(ctx, tx, id, newStatus)
	})
}

func updateOrderStatusTx(ctx context.Context, tx *sql.Tx, id int64, newStatus string) error {
	var current string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`,
		id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return database.ErrOrderNotFound
		}
		return fmt.Errorf("lock order: %w", err)
	}

	if !models.CanTransition(current, newStatus) {
		return fmt.Errorf("%w: %s -> %s", database.ErrInvalidTransition, current, newStatus)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1, updated_at = NOW(), version = version + 1
		 WHERE id = $2`,
		newStatus, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	return nil
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT id, user_id, order_number, status, billing_address_id, shipping_address_id,
		       coupon_code, subtotal, discount_amount, total_amount, created_at, updated_at, version
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.OrderNumber,
			&order.Status,
			&order.BillingAddressID,
			&order.ShippingAddressID,
			&order.CouponCode,
			&order.Subtotal,
			&order.DiscountAmount,
			&order.TotalAmount,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// GetNextPendingOrder claims the oldest pending order for a worker, skipping
// rows other workers hold.
func GetNextPendingOrder(ctx context.Context, tx *sql.Tx) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, user_id, order_number, status, billing_address_id, shipping_address_id,
		       coupon_code, subtotal, discount_amount, total_amount, created_at, updated_at, version
		FROM orders
		WHERE status = $1
		ORDER BY created_at
		FOR UPDATE SKIP LOCKED
		LIMIT 1`

	err := tx.QueryRowContext(ctx, query, models.OrderStatusPending).Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.BillingAddressID,
		&order.ShippingAddressID,
		&order.CouponCode,
		&order.Subtotal,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get next pending order: %w", err)
	}

	return order, nil
}
