// Package users persists locally provisioned login accounts.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

type Repository interface {
	// Create inserts a new account. Returns common.ErrorAlreadyExists when the
	// email is taken.
	Create(ctx context.Context, user *models.LocalUser) error

	// GetByEmail returns common.ErrorNotFound when no account exists.
	GetByEmail(ctx context.Context, userEmail string) (*models.LocalUser, error)

	Exists(ctx context.Context, userEmail string) (bool, error)

	// List returns all accounts ordered by email.
	List(ctx context.Context) ([]*models.LocalUser, error)

	// RecordLoginSuccess resets the failed-attempt counter and sets last_login.
	RecordLoginSuccess(ctx context.Context, userEmail string, at time.Time) error

	// RecordLoginFailure increments the failed-attempt counter and returns the
	// new value.
	RecordLoginFailure(ctx context.Context, userEmail string) (int, error)

	SetActive(ctx context.Context, userEmail string, active bool) error

	// UpdatePassword replaces hash and salt, resets the failed-attempt counter
	// and stamps password_changed_at.
	UpdatePassword(ctx context.Context, userEmail string, hash, salt []byte) error

	// Delete removes the account; sessions cascade at the database level.
	// Returns common.ErrorNotFound when no row was deleted.
	Delete(ctx context.Context, userEmail string) error
}
