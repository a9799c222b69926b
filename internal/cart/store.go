package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matthieukhl/storefront/internal/catalog"
	"github.com/matthieukhl/storefront/internal/database"
	"github.com/matthieukhl/storefront/internal/models"
)

// Mode selects how UpsertLine combines the given quantity with an existing
// cart line.
type Mode int

const (
	// ModeAdd increments the existing quantity (or creates the line)
	ModeAdd Mode = iota
	// ModeSet replaces the quantity outright
	ModeSet
)

// StockError reports a cart mutation that would exceed available stock.
// The cart is left untouched.
type StockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: %d available, %d requested",
		e.ProductID, e.Available, e.Requested)
}

// Store holds the per-(customer, session) cart lines. A quantity of zero is
// equivalent to absence: such lines are deleted, never stored.
type Store struct {
	q database.Executor
}

// NewStore creates a cart store over a database or transaction handle
func NewStore(q database.Executor) *Store {
	return &Store{q: q}
}

// UpsertLine adds to or sets the quantity of one cart line. The new quantity
// is checked against current catalog stock in the same step; a computed
// quantity of zero removes the line.
func (s *Store) UpsertLine(ctx context.Context, key models.SessionKey, productID int64, qty int, mode Mode) error {
	if qty < 0 {
		panic(fmt.Sprintf("cart: UpsertLine called with negative quantity %d", qty))
	}

	existing, err := s.lineQty(ctx, key, productID)
	if err != nil {
		return err
	}

	stock, err := catalog.NewStore(s.q).ReadStock(ctx, productID)
	if err != nil {
		return err
	}

	newQty := qty
	if mode == ModeAdd && existing != nil {
		newQty = *existing + qty
	}

	if newQty == 0 {
		return s.RemoveLine(ctx, key, productID)
	}

	if newQty > stock {
		return &StockError{ProductID: productID, Available: stock, Requested: newQty}
	}

	if existing == nil {
		_, err = s.q.ExecContext(ctx,
			`INSERT INTO cart_items (customer_id, session_no, product_id, qty) VALUES (?, ?, ?, ?)`,
			key.CustomerID, key.SessionNo, productID, newQty,
		)
	} else {
		_, err = s.q.ExecContext(ctx,
			`UPDATE cart_items SET qty = ? WHERE customer_id = ? AND session_no = ? AND product_id = ?`,
			newQty, key.CustomerID, key.SessionNo, productID,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to write cart line: %w", err)
	}
	return nil
}

// ListLines retrieves all cart lines joined with current product data, in
// product id order so checkout line numbering is deterministic.
func (s *Store) ListLines(ctx context.Context, key models.SessionKey) ([]models.CartItem, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT ct.product_id, p.name, p.price, ct.qty, p.stock_qty, (p.price * ct.qty) AS line_total
		 FROM cart_items ct
		 JOIN products p ON ct.product_id = p.id
		 WHERE ct.customer_id = ? AND ct.session_no = ?
		 ORDER BY ct.product_id`,
		key.CustomerID, key.SessionNo,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.UnitPrice, &it.Qty, &it.StockQty, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	return items, nil
}

// RemoveLine deletes one cart line; removing an absent line is a no-op
func (s *Store) RemoveLine(ctx context.Context, key models.SessionKey, productID int64) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE customer_id = ? AND session_no = ? AND product_id = ?`,
		key.CustomerID, key.SessionNo, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}
	return nil
}

// Clear deletes every cart line for the session
func (s *Store) Clear(ctx context.Context, key models.SessionKey) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE customer_id = ? AND session_no = ?`,
		key.CustomerID, key.SessionNo,
	)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *Store) lineQty(ctx context.Context, key models.SessionKey, productID int64) (*int, error) {
	var qty int
	err := s.q.QueryRowContext(ctx,
		`SELECT qty FROM cart_items WHERE customer_id = ? AND session_no = ? AND product_id = ?`,
		key.CustomerID, key.SessionNo, productID,
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cart line: %w", err)
	}
	return &qty, nil
}
