package models

import (
	"time"
)

// Product represents one catalog record; StockQty is the authoritative
// available-to-sell count.
type Product struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	Category    string  `json:"category" db:"category"`
	Price       float64 `json:"price" db:"price"`
	StockQty    int     `json:"stock_qty" db:"stock_qty"`
}

// SessionKey identifies the cart scope: one customer within one visit.
type SessionKey struct {
	CustomerID int64
	SessionNo  int
}

// Session represents a single continuous shopping visit
type Session struct {
	CustomerID int64      `json:"customer_id" db:"customer_id"`
	SessionNo  int        `json:"session_no" db:"session_no"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	EndedAt    *time.Time `json:"ended_at" db:"ended_at"`
}

// CartItem is one cart line joined with its current catalog row
type CartItem struct {
	ProductID int64   `json:"product_id" db:"product_id"`
	Name      string  `json:"name" db:"name"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
	Qty       int     `json:"qty" db:"qty"`
	StockQty  int     `json:"stock_qty" db:"stock_qty"`
	LineTotal float64 `json:"line_total" db:"line_total"`
}

// Order represents a placed order header
type Order struct {
	OrderNo         int64     `json:"order_no" db:"order_no"`
	CustomerID      int64     `json:"customer_id" db:"customer_id"`
	SessionNo       int       `json:"session_no" db:"session_no"`
	PlacedAt        time.Time `json:"placed_at" db:"placed_at"`
	ShippingAddress string    `json:"shipping_address" db:"shipping_address"`
}

// OrderDetail is one order line joined with its product, priced as sold
type OrderDetail struct {
	ProductName string  `json:"product_name" db:"product_name"`
	Category    string  `json:"category" db:"category"`
	Qty         int     `json:"qty" db:"qty"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	LineTotal   float64 `json:"line_total" db:"line_total"`
}

// OrderSummary is one order with its total, for the customer's order history
type OrderSummary struct {
	OrderNo         int64     `json:"order_no" db:"order_no"`
	PlacedAt        time.Time `json:"placed_at" db:"placed_at"`
	ShippingAddress string    `json:"shipping_address" db:"shipping_address"`
	Total           float64   `json:"total" db:"total"`
}

// User is a login account; customers additionally have a profile row
type User struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Role     string `json:"role" db:"role"`
	Password string `json:"-" db:"password"`
}

// SalesMetrics aggregates the trailing sales window for the weekly report
type SalesMetrics struct {
	Orders         int     `json:"orders"`
	Products       int     `json:"products"`
	Customers      int     `json:"customers"`
	AvgPerCustomer float64 `json:"avg_per_customer"`
	TotalSales     float64 `json:"total_sales"`
}

// ProductRank is one entry of a top-products report
type ProductRank struct {
	ProductID int64  `json:"product_id" db:"product_id"`
	Name      string `json:"name" db:"name"`
	Count     int    `json:"count" db:"count"`
}

// User roles
const (
	RoleCustomer = "customer"
	RoleSales    = "sales"
)

// Product categories
const (
	CategoryElectronics = "electronics"
	CategoryBooks       = "books"
	CategoryClothing    = "clothing"
	CategoryHome        = "home"
	CategorySports      = "sports"
	CategoryToys        = "toys"
)
