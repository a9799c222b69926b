package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matthieukhl/storefront/internal/cart"
	"github.com/matthieukhl/storefront/internal/catalog"
	"github.com/matthieukhl/storefront/internal/database"
	"github.com/matthieukhl/storefront/internal/models"
)

// ErrEmptyCart is returned by PlaceOrder when the session has no cart lines.
var ErrEmptyCart = errors.New("cart is empty")

// InsufficientStockError reports the first cart line whose quantity exceeded
// stock inside the checkout transaction. Nothing has been persisted.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: %d available, %d requested",
		e.ProductID, e.Available, e.Requested)
}

// Engine converts a session's cart into a durable order. All writes of a
// checkout happen inside one transaction: the order header, its lines, the
// stock decrements and the cart clear persist together or not at all.
type Engine struct {
	db *database.DB
}

// NewEngine creates an order engine over the given store handle
func NewEngine(db *database.DB) *Engine {
	return &Engine{db: db}
}

// PlaceOrder materializes the session's cart as an order and returns the new
// order number. It fails with ErrEmptyCart on an empty cart and with
// *InsufficientStockError when any line exceeds current stock; in both cases
// no side effect remains visible.
func (e *Engine) PlaceOrder(ctx context.Context, key models.SessionKey, shippingAddress string) (int64, error) {
	var orderNo int64

	err := e.db.WithinTx(ctx, func(tx *sql.Tx) error {
		carts := cart.NewStore(tx)
		products := catalog.NewStore(tx)

		items, err := carts.ListLines(ctx, key)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		no, err := nextOrderNo(ctx, tx)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO orders (order_no, customer_id, session_no, placed_at, shipping_address) VALUES (?, ?, ?, ?, ?)`,
			no, key.CustomerID, key.SessionNo, time.Now(), shippingAddress,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i, it := range items {
			// Authoritative stock check inside the transaction; the
			// advisory check at cart-add time may be stale by now.
			stock, err := products.ReadStock(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if stock < it.Qty {
				return &InsufficientStockError{
					ProductID: it.ProductID,
					Available: stock,
					Requested: it.Qty,
				}
			}

			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_lines (order_no, line_no, product_id, qty, unit_price) VALUES (?, ?, ?, ?, ?)`,
				no, i+1, it.ProductID, it.Qty, it.UnitPrice,
			)
			if err != nil {
				return fmt.Errorf("failed to insert order line: %w", err)
			}

			if err := products.DecrementStock(ctx, it.ProductID, it.Qty); err != nil {
				return err
			}
		}

		if err := carts.Clear(ctx, key); err != nil {
			return err
		}

		orderNo = no
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderNo, nil
}

// OrderDetails retrieves the lines of one order joined with product data,
// priced as captured at purchase time, in line number order.
func (e *Engine) OrderDetails(ctx context.Context, orderNo int64) ([]models.OrderDetail, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT p.name, p.category, ol.qty, ol.unit_price, (ol.qty * ol.unit_price) AS line_total
		 FROM order_lines ol
		 JOIN products p ON ol.product_id = p.id
		 WHERE ol.order_no = ?
		 ORDER BY ol.line_no`,
		orderNo,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order details: %w", err)
	}
	defer rows.Close()

	var details []models.OrderDetail
	for rows.Next() {
		var d models.OrderDetail
		if err := rows.Scan(&d.ProductName, &d.Category, &d.Qty, &d.UnitPrice, &d.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan order detail: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order details: %w", err)
	}
	return details, nil
}

// OrdersForCustomer retrieves a customer's orders, newest first, each with a
// total computed from its captured line prices.
func (e *Engine) OrdersForCustomer(ctx context.Context, customerID int64) ([]models.OrderSummary, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT o.order_no, o.placed_at, o.shipping_address, SUM(ol.qty * ol.unit_price) AS total
		 FROM orders o
		 JOIN order_lines ol ON o.order_no = ol.order_no
		 WHERE o.customer_id = ?
		 GROUP BY o.order_no, o.placed_at, o.shipping_address
		 ORDER BY o.placed_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.OrderSummary
	for rows.Next() {
		var o models.OrderSummary
		if err := rows.Scan(&o.OrderNo, &o.PlacedAt, &o.ShippingAddress, &o.Total); err != nil {
			return nil, fmt.Errorf("failed to scan order summary: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	return orders, nil
}

// nextOrderNo assigns order numbers monotonically: max existing + 1, or 1
// when no orders exist yet.
func nextOrderNo(ctx context.Context, q database.Executor) (int64, error) {
	var no int64
	err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(order_no), 0) + 1 FROM orders`).Scan(&no)
	if err != nil {
		return 0, fmt.Errorf("failed to assign order number: %w", err)
	}
	return no, nil
}
