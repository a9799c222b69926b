package order

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthieukhl/storefront/internal/database"
	"github.com/matthieukhl/storefront/internal/models"
)

var testKey = models.SessionKey{CustomerID: 3, SessionNo: 1}

func newMock(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEngine(&database.DB{DB: db}), mock
}

func expectCartRead(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(`FROM cart_items ct JOIN products p ON ct.product_id = p.id`)).
		WithArgs(testKey.CustomerID, testKey.SessionNo).
		WillReturnRows(rows)
}

func cartRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"product_id", "name", "price", "qty", "stock_qty", "line_total"})
}

func expectNextOrderNo(mock sqlmock.Sqlmock, no int64) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(order_no), 0) + 1 FROM orders`)).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(no))
}

func expectStockRead(mock sqlmock.Sqlmock, productID int64, stock int) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT stock_qty FROM products WHERE id = ?`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"stock_qty"}).AddRow(stock))
}

func TestPlaceOrderSuccess(t *testing.T) {
	engine, mock := newMock(t)

	mock.ExpectBegin()
	expectCartRead(mock, cartRows().AddRow(5, "Running Shoes", 89.99, 2, 3, 179.98))
	expectNextOrderNo(mock, 11)
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO orders (order_no, customer_id, session_no, placed_at, shipping_address) VALUES (?, ?, ?, ?, ?)`,
	)).WithArgs(int64(11), testKey.CustomerID, testKey.SessionNo, sqlmock.AnyArg(), "12 Main St").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectStockRead(mock, 5, 3)
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO order_lines (order_no, line_no, product_id, qty, unit_price) VALUES (?, ?, ?, ?, ?)`,
	)).WithArgs(int64(11), 1, int64(5), 2, 89.99).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE products SET stock_qty = stock_qty - ? WHERE id = ? AND stock_qty >= ?`,
	)).WithArgs(2, int64(5), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM cart_items WHERE customer_id = ? AND session_no = ?`,
	)).WithArgs(testKey.CustomerID, testKey.SessionNo).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	orderNo, err := engine.PlaceOrder(context.Background(), testKey, "12 Main St")
	require.NoError(t, err)
	assert.Equal(t, int64(11), orderNo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	engine, mock := newMock(t)

	mock.ExpectBegin()
	expectCartRead(mock, cartRows())
	mock.ExpectRollback()

	orderNo, err := engine.PlaceOrder(context.Background(), testKey, "12 Main St")
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, orderNo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	engine, mock := newMock(t)

	mock.ExpectBegin()
	expectCartRead(mock, cartRows().AddRow(7, "LED Desk Lamp", 59.99, 5, 1, 299.95))
	expectNextOrderNo(mock, 4)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(int64(4), testKey.CustomerID, testKey.SessionNo, sqlmock.AnyArg(), "12 Main St").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectStockRead(mock, 7, 1)
	mock.ExpectRollback()

	orderNo, err := engine.PlaceOrder(context.Background(), testKey, "12 Main St")

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(7), stockErr.ProductID)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Zero(t, orderNo)
	// No order line insert, no stock decrement, no cart clear, no commit
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderSecondLineInsufficientRollsBackEverything(t *testing.T) {
	engine, mock := newMock(t)

	mock.ExpectBegin()
	expectCartRead(mock, cartRows().
		AddRow(2, "Wireless Mouse", 29.99, 1, 200, 29.99).
		AddRow(9, "Winter Jacket", 129.99, 4, 2, 519.96))
	expectNextOrderNo(mock, 8)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(int64(8), testKey.CustomerID, testKey.SessionNo, sqlmock.AnyArg(), "12 Main St").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// First line goes through completely
	expectStockRead(mock, 2, 200)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_lines`)).
		WithArgs(int64(8), 1, int64(2), 1, 29.99).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET stock_qty = stock_qty - ?`)).
		WithArgs(1, int64(2), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second line fails the authoritative check
	expectStockRead(mock, 9, 2)
	mock.ExpectRollback()

	_, err := engine.PlaceOrder(context.Background(), testKey, "12 Main St")

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(9), stockErr.ProductID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderDenseLineNumbers(t *testing.T) {
	engine, mock := newMock(t)

	mock.ExpectBegin()
	expectCartRead(mock, cartRows().
		AddRow(1, "Laptop Pro 15\"", 1299.99, 1, 50, 1299.99).
		AddRow(4, "Cotton T-Shirt", 19.99, 3, 500, 59.97).
		AddRow(6, "Coffee Mug", 9.99, 2, 300, 19.98))
	expectNextOrderNo(mock, 1)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(int64(1), testKey.CustomerID, testKey.SessionNo, sqlmock.AnyArg(), "12 Main St").
		WillReturnResult(sqlmock.NewResult(0, 1))
	for i, line := range []struct {
		productID int64
		qty       int
		price     float64
		stock     int
	}{
		{1, 1, 1299.99, 50},
		{4, 3, 19.99, 500},
		{6, 2, 9.99, 300},
	} {
		expectStockRead(mock, line.productID, line.stock)
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_lines`)).
			WithArgs(int64(1), i+1, line.productID, line.qty, line.price).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET stock_qty = stock_qty - ?`)).
			WithArgs(line.qty, line.productID, line.qty).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_items`)).
		WithArgs(testKey.CustomerID, testKey.SessionNo).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	orderNo, err := engine.PlaceOrder(context.Background(), testKey, "12 Main St")
	require.NoError(t, err)
	assert.Equal(t, int64(1), orderNo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderPersistenceFailureRollsBack(t *testing.T) {
	engine, mock := newMock(t)

	mock.ExpectBegin()
	expectCartRead(mock, cartRows().AddRow(5, "Running Shoes", 89.99, 2, 3, 179.98))
	expectNextOrderNo(mock, 11)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(int64(11), testKey.CustomerID, testKey.SessionNo, sqlmock.AnyArg(), "12 Main St").
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	_, err := engine.PlaceOrder(context.Background(), testKey, "12 Main St")
	require.Error(t, err)

	var stockErr *InsufficientStockError
	assert.False(t, errors.As(err, &stockErr))
	assert.False(t, errors.Is(err, ErrEmptyCart))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderDetails(t *testing.T) {
	engine, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"name", "category", "qty", "unit_price", "line_total"}).
		AddRow("Running Shoes", "sports", 2, 89.99, 179.98).
		AddRow("Coffee Mug", "home", 1, 9.99, 9.99)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_lines ol JOIN products p ON ol.product_id = p.id`)).
		WithArgs(int64(11)).
		WillReturnRows(rows)

	details, err := engine.OrderDetails(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "Running Shoes", details[0].ProductName)
	assert.InDelta(t, 179.98, details[0].LineTotal, 0.001)
	assert.Equal(t, "home", details[1].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersForCustomer(t *testing.T) {
	engine, mock := newMock(t)

	newest := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"order_no", "placed_at", "shipping_address", "total"}).
		AddRow(12, newest, "12 Main St", 199.97).
		AddRow(11, newest.Add(-24*time.Hour), "12 Main St", 89.99)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders o JOIN order_lines ol ON o.order_no = ol.order_no`)).
		WithArgs(testKey.CustomerID).
		WillReturnRows(rows)

	orders, err := engine.OrdersForCustomer(context.Background(), testKey.CustomerID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(12), orders[0].OrderNo)
	assert.InDelta(t, 199.97, orders[0].Total, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}
