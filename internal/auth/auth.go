package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/matthieukhl/storefront/internal/database"
	"github.com/matthieukhl/storefront/internal/models"
)

var (
	// ErrUnknownUser is returned when the user id has no account.
	ErrUnknownUser = errors.New("unknown user")
	// ErrWrongPassword is returned when the password does not match.
	ErrWrongPassword = errors.New("wrong password")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// Service verifies credentials and registers customers. Passwords are stored
// and compared in plain text, matching the data this system is given.
type Service struct {
	db *database.DB
}

// NewService creates an auth service over the given store handle
func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

// Login verifies a user id and password and returns the account
func (s *Service) Login(ctx context.Context, userID int64, password string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password, role FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &u.Password, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if password != u.Password {
		return nil, ErrWrongPassword
	}

	u.Name = "Sales"
	if u.Role == models.RoleCustomer {
		err := s.db.QueryRowContext(ctx,
			`SELECT name FROM customers WHERE id = ?`, userID,
		).Scan(&u.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to query customer: %w", err)
		}
	}
	return &u, nil
}

// Register creates a customer account: a users row and a customers row in
// one transaction. The new user id is max existing + 1.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	taken, err := s.emailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	var userID int64
	err = s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM users`,
		).Scan(&userID); err != nil {
			return fmt.Errorf("failed to assign user id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, password, role) VALUES (?, ?, ?)`,
			userID, password, models.RoleCustomer,
		); err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO customers (id, name, email) VALUES (?, ?, ?)`,
			userID, name, email,
		); err != nil {
			return fmt.Errorf("failed to insert customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.User{ID: userID, Name: name, Role: models.RoleCustomer, Password: password}, nil
}

func (s *Service) emailExists(ctx context.Context, email string) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM customers WHERE LOWER(email) = ?`, email,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return true, nil
}
