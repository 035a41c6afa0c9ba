// Package services contains the business logic of the credential-custody
// subsystem. Storage and crypto failures are caught here, logged with
// context, and converted into sentinel return values: callers check for
// false/nil/empty instead of handling errors.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/atlassist/internal/common"
	"github.com/dmitrijs2005/atlassist/internal/cryptox"
	"github.com/dmitrijs2005/atlassist/internal/dbx"
	"github.com/dmitrijs2005/atlassist/internal/logging"
	"github.com/dmitrijs2005/atlassist/internal/server/models"
	"github.com/dmitrijs2005/atlassist/internal/server/repositories/repomanager"
)

// CredentialService owns per-user Atlassian API credentials. Tokens are
// encrypted before they reach the repository and decrypted on the way out.
type CredentialService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	box    *cryptox.SecretBox
	logger logging.Logger
}

func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, box *cryptox.SecretBox, logger logging.Logger) *CredentialService {
	return &CredentialService{
		db:     db,
		repos:  m,
		box:    box,
		logger: logger.With("service", "credentials"),
	}
}

// SaveCredentials encrypts apiKey and upserts the row for userEmail
// (last-write-wins). Returns false on any persistence or encryption error.
func (s *CredentialService) SaveCredentials(ctx context.Context, userEmail, apiKey, atlassianUsername string) bool {
	encrypted := s.box.Encrypt(apiKey)
	if apiKey != "" && encrypted == "" {
		s.logger.Error(ctx, "token encryption failed", "user", userEmail)
		return false
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Credentials(tx).Upsert(ctx, &models.AtlassianCredential{
			UserEmail:         userEmail,
			EncryptedAPIToken: encrypted,
			AtlassianUsername: atlassianUsername,
		})
	})
	if err != nil {
		s.logger.Error(ctx, "error saving credentials", "user", userEmail, "error", err)
		return false
	}

	return true
}

// GetCredentials returns the decrypted API key and the Atlassian username.
// ("", "") means "not configured" — missing row, undecryptable token, or
// storage error all collapse into it.
func (s *CredentialService) GetCredentials(ctx context.Context, userEmail string) (string, string) {
	cred, err := s.repos.Credentials(s.db).GetByEmail(ctx, userEmail)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "error reading credentials", "user", userEmail, "error", err)
		}
		return "", ""
	}

	apiKey := s.box.Decrypt(cred.EncryptedAPIToken)
	if apiKey == "" {
		// decrypt already logged the cause; the caller sees "not configured"
		return "", ""
	}

	return apiKey, cred.AtlassianUsername
}

// DeleteCredentials removes the stored credential. Returns false only on a
// persistence error; deleting an absent row succeeds.
func (s *CredentialService) DeleteCredentials(ctx context.Context, userEmail string) bool {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Credentials(tx).Delete(ctx, userEmail)
	})
	if err != nil {
		s.logger.Error(ctx, "error deleting credentials", "user", userEmail, "error", err)
		return false
	}

	return true
}
