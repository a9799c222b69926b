package report

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/matthieukhl/storefront/internal/database"
	"github.com/matthieukhl/storefront/internal/models"
)

// Store computes the aggregate metrics the sales staff reads. Everything here
// is read-only.
type Store struct {
	q database.Executor
}

// NewStore creates a report store over a database or transaction handle
func NewStore(q database.Executor) *Store {
	return &Store{q: q}
}

// SalesMetrics aggregates the trailing windowDays days, today inclusive:
// distinct orders, distinct products sold, distinct buying customers, total
// sales and average spend per customer.
func (s *Store) SalesMetrics(ctx context.Context, windowDays int) (*models.SalesMetrics, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	// Inclusive window: 7 days means today plus the 6 days before it
	interval := windowDays - 1

	var m models.SalesMetrics

	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT o.order_no) FROM orders o
		 WHERE DATE(o.placed_at) >= DATE_SUB(CURDATE(), INTERVAL ? DAY)`,
		interval,
	).Scan(&m.Orders)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	err = s.q.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT ol.product_id) FROM order_lines ol
		 JOIN orders o ON ol.order_no = o.order_no
		 WHERE DATE(o.placed_at) >= DATE_SUB(CURDATE(), INTERVAL ? DAY)`,
		interval,
	).Scan(&m.Products)
	if err != nil {
		return nil, fmt.Errorf("failed to count products sold: %w", err)
	}

	err = s.q.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT o.customer_id) FROM orders o
		 WHERE DATE(o.placed_at) >= DATE_SUB(CURDATE(), INTERVAL ? DAY)`,
		interval,
	).Scan(&m.Customers)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	err = s.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ol.qty * ol.unit_price), 0) FROM order_lines ol
		 JOIN orders o ON ol.order_no = o.order_no
		 WHERE DATE(o.placed_at) >= DATE_SUB(CURDATE(), INTERVAL ? DAY)`,
		interval,
	).Scan(&m.TotalSales)
	if err != nil {
		return nil, fmt.Errorf("failed to sum sales: %w", err)
	}

	if m.Customers > 0 {
		m.AvgPerCustomer = round2(m.TotalSales / float64(m.Customers))
	}
	m.TotalSales = round2(m.TotalSales)

	return &m, nil
}

// TopProductsByOrders ranks products by the number of distinct orders that
// include them and returns the top three, ties at rank three included.
func (s *Store) TopProductsByOrders(ctx context.Context) ([]models.ProductRank, error) {
	ranks, err := s.queryRanks(ctx,
		`SELECT p.id, p.name, COUNT(DISTINCT ol.order_no) AS cnt
		 FROM order_lines ol
		 JOIN products p ON p.id = ol.product_id
		 GROUP BY p.id, p.name
		 ORDER BY cnt DESC, p.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rank products by orders: %w", err)
	}
	return top3WithTies(ranks), nil
}

// TopProductsByViews ranks products by recorded views and returns the top
// three, ties at rank three included.
func (s *Store) TopProductsByViews(ctx context.Context) ([]models.ProductRank, error) {
	ranks, err := s.queryRanks(ctx,
		`SELECT p.id, p.name, COUNT(*) AS cnt
		 FROM product_views v
		 JOIN products p ON p.id = v.product_id
		 GROUP BY p.id, p.name
		 ORDER BY cnt DESC, p.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rank products by views: %w", err)
	}
	return top3WithTies(ranks), nil
}

func (s *Store) queryRanks(ctx context.Context, query string) ([]models.ProductRank, error) {
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranks []models.ProductRank
	for rows.Next() {
		var r models.ProductRank
		if err := rows.Scan(&r.ProductID, &r.Name, &r.Count); err != nil {
			return nil, err
		}
		ranks = append(ranks, r)
	}
	return ranks, rows.Err()
}

// top3WithTies keeps every entry whose count reaches the third-highest
// distinct count. Input must already be sorted by count descending.
func top3WithTies(ranks []models.ProductRank) []models.ProductRank {
	if len(ranks) == 0 {
		return nil
	}

	seen := make(map[int]struct{})
	for _, r := range ranks {
		seen[r.Count] = struct{}{}
	}
	counts := make([]int, 0, len(seen))
	for c := range seen {
		counts = append(counts, c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	cutoff := counts[len(counts)-1]
	if len(counts) > 3 {
		cutoff = counts[2]
	}

	var top []models.ProductRank
	for _, r := range ranks {
		if r.Count >= cutoff {
			top = append(top, r)
		}
	}
	return top
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
