package session

import (
	"context"
	"fmt"

	"github.com/matthieukhl/storefront/internal/database"
	"github.com/matthieukhl/storefront/internal/models"
)

// Store manages shopping visits. A session scopes the customer's cart and
// any order placed during the visit.
type Store struct {
	q database.Executor
}

// NewStore creates a session store over a database or transaction handle
func NewStore(q database.Executor) *Store {
	return &Store{q: q}
}

// Open starts a new session for the customer and returns its key. Session
// numbers count up per customer: max existing + 1, or 1 on first login.
func (s *Store) Open(ctx context.Context, customerID int64) (models.SessionKey, error) {
	var sessionNo int
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(session_no), 0) + 1 FROM sessions WHERE customer_id = ?`,
		customerID,
	).Scan(&sessionNo)
	if err != nil {
		return models.SessionKey{}, fmt.Errorf("failed to assign session number: %w", err)
	}

	_, err = s.q.ExecContext(ctx,
		`INSERT INTO sessions (customer_id, session_no, ended_at) VALUES (?, ?, NULL)`,
		customerID, sessionNo,
	)
	if err != nil {
		return models.SessionKey{}, fmt.Errorf("failed to create session: %w", err)
	}

	return models.SessionKey{CustomerID: customerID, SessionNo: sessionNo}, nil
}

// Close stamps the session's end time; called at logout
func (s *Store) Close(ctx context.Context, key models.SessionKey) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE sessions SET ended_at = CURRENT_TIMESTAMP WHERE customer_id = ? AND session_no = ?`,
		key.CustomerID, key.SessionNo,
	)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}
