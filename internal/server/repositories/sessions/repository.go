// Package sessions persists login sessions keyed by their opaque token.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

// SessionWithAccount is a session row joined with the owning account's
// status fields, as needed for validation.
type SessionWithAccount struct {
	Session       models.Session
	AccountActive bool
	DisplayName   string
	IsAdmin       bool
}

type Repository interface {
	Create(ctx context.Context, session *models.Session) error

	// GetWithAccount returns common.ErrorNotFound for unknown tokens.
	GetWithAccount(ctx context.Context, sessionID string) (*SessionWithAccount, error)

	// MarkInactive flags the session inactive. Idempotent; unknown tokens are
	// not an error.
	MarkInactive(ctx context.Context, sessionID string) error

	// DeactivateByUser flags every session of the account inactive.
	DeactivateByUser(ctx context.Context, userEmail string) error
}
