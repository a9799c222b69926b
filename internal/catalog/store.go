package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/matthieukhl/storefront/internal/database"
	"github.com/matthieukhl/storefront/internal/models"
)

// ErrProductNotFound is returned when a product id has no catalog row.
var ErrProductNotFound = errors.New("product not found")

// Store gives read/write access to product records. It owns stock truth:
// stock_qty changes only through SetStock and DecrementStock.
type Store struct {
	q database.Executor
}

// NewStore creates a catalog store over a database or transaction handle
func NewStore(q database.Executor) *Store {
	return &Store{q: q}
}

// ProductByID retrieves one product with full details
func (s *Store) ProductByID(ctx context.Context, productID int64) (*models.Product, error) {
	var p models.Product
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, description, category, price, stock_qty FROM products WHERE id = ?`,
		productID,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.StockQty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

// Search performs a case-insensitive keyword search over product names and
// descriptions. Every keyword must match. The search is recorded against the
// session for the top-products-by-views style reporting.
func (s *Store) Search(ctx context.Context, key models.SessionKey, keywords []string) ([]models.Product, error) {
	conditions := make([]string, 0, len(keywords))
	args := make([]any, 0, len(keywords)*2)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		conditions = append(conditions, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		pattern := "%" + strings.ToLower(kw) + "%"
		args = append(args, pattern, pattern)
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	if err := s.recordSearch(ctx, key, strings.Join(keywords, " ")); err != nil {
		return nil, err
	}

	query := `SELECT id, name, description, category, price, stock_qty FROM products WHERE ` +
		strings.Join(conditions, " AND ")
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.StockQty); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// ReadStock retrieves the current stock count for a product
func (s *Store) ReadStock(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := s.q.QueryRowContext(ctx,
		`SELECT stock_qty FROM products WHERE id = ?`, productID,
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}
	return stock, nil
}

// DecrementStock reduces a product's stock by amount. Callers must have
// verified the amount against current stock; the guarded UPDATE is the final
// line of defense for the stock-never-negative invariant.
func (s *Store) DecrementStock(ctx context.Context, productID int64, amount int) error {
	if amount <= 0 {
		panic(fmt.Sprintf("catalog: DecrementStock called with non-positive amount %d", amount))
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE products SET stock_qty = stock_qty - ? WHERE id = ? AND stock_qty >= ?`,
		amount, productID, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to decrement stock for product %d: no row with stock >= %d", productID, amount)
	}
	return nil
}

// SetPrice updates a product's unit price. Administrative, used by sales
// staff edits; placed orders keep their captured price.
func (s *Store) SetPrice(ctx context.Context, productID int64, price float64) error {
	if price < 0 {
		panic(fmt.Sprintf("catalog: SetPrice called with negative price %v", price))
	}
	_, err := s.q.ExecContext(ctx,
		`UPDATE products SET price = ? WHERE id = ?`, price, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	return nil
}

// SetStock replaces a product's stock count. Administrative.
func (s *Store) SetStock(ctx context.Context, productID int64, stock int) error {
	if stock < 0 {
		panic(fmt.Sprintf("catalog: SetStock called with negative stock %d", stock))
	}
	_, err := s.q.ExecContext(ctx,
		`UPDATE products SET stock_qty = ? WHERE id = ?`, stock, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}

// RecordView logs that the customer viewed a specific product
func (s *Store) RecordView(ctx context.Context, key models.SessionKey, productID int64) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO product_views (customer_id, session_no, product_id) VALUES (?, ?, ?)`,
		key.CustomerID, key.SessionNo, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to record product view: %w", err)
	}
	return nil
}

func (s *Store) recordSearch(ctx context.Context, key models.SessionKey, query string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO searches (customer_id, session_no, query) VALUES (?, ?, ?)`,
		key.CustomerID, key.SessionNo, query,
	)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}
