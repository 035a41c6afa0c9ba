// Package credentials persists per-user Atlassian API credentials. Tokens
// arrive already encrypted; this layer never sees plaintext secrets.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

type Repository interface {
	// Upsert inserts or replaces the credential row for cred.UserEmail,
	// touching updated_at on replace.
	Upsert(ctx context.Context, cred *models.AtlassianCredential) error

	// GetByEmail returns common.ErrorNotFound when no row exists.
	GetByEmail(ctx context.Context, userEmail string) (*models.AtlassianCredential, error)

	// Delete removes the row. Deleting an absent row is not an error.
	Delete(ctx context.Context, userEmail string) error
}
