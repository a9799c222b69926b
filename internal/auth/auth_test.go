package auth

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthieukhl/storefront/internal/database"
	"github.com/matthieukhl/storefront/internal/models"
)

func newMock(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(&database.DB{DB: db}), mock
}

func TestLoginCustomer(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, password, role FROM users WHERE id = ?`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "password", "role"}).
			AddRow(3, "secret", models.RoleCustomer))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name FROM customers WHERE id = ?`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Jane Smith"))

	user, err := svc.Login(context.Background(), 3, "secret")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", user.Name)
	assert.Equal(t, models.RoleCustomer, user.Role)
}

func TestLoginSales(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, password, role FROM users WHERE id = ?`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "password", "role"}).
			AddRow(1, "sales", models.RoleSales))

	user, err := svc.Login(context.Background(), 1, "sales")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSales, user.Role)
	assert.Equal(t, "Sales", user.Name)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, password, role FROM users WHERE id = ?`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "password", "role"}).
			AddRow(3, "secret", models.RoleCustomer))

	_, err := svc.Login(context.Background(), 3, "wrong")
	require.ErrorIs(t, err, ErrWrongPassword)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, password, role FROM users WHERE id = ?`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "password", "role"}))

	_, err := svc.Login(context.Background(), 42, "whatever")
	require.ErrorIs(t, err, ErrUnknownUser)
}

func TestRegister(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM customers WHERE LOWER(email) = ?`)).
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(id), 0) + 1 FROM users`)).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id, password, role) VALUES (?, ?, ?)`)).
		WithArgs(int64(7), "pw", models.RoleCustomer).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO customers (id, name, email) VALUES (?, ?, ?)`)).
		WithArgs(int64(7), "New Customer", "new@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.Register(context.Background(), "New Customer", "New@Example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, models.RoleCustomer, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterEmailTaken(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM customers WHERE LOWER(email) = ?`)).
		WithArgs("jane.smith@gmail.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	_, err := svc.Register(context.Background(), "Jane", "jane.smith@gmail.com", "pw")
	require.ErrorIs(t, err, ErrEmailTaken)
	// Nothing was written
	require.NoError(t, mock.ExpectationsWereMet())
}
