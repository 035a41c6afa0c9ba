package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/atlassist/internal/common"
	"github.com/dmitrijs2005/atlassist/internal/dbx"
	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, cred *models.AtlassianCredential) error {

	query :=
		`INSERT INTO atlassian_credentials (user_email, encrypted_api_token, atlassian_username)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_email) DO UPDATE
		 SET encrypted_api_token = EXCLUDED.encrypted_api_token,
		     atlassian_username = EXCLUDED.atlassian_username,
		     updated_at = now()
		 `

	_, err := r.db.ExecContext(ctx, query,
		cred.UserEmail, cred.EncryptedAPIToken, cred.AtlassianUsername)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, userEmail string) (*models.AtlassianCredential, error) {
	query :=
		`SELECT user_email, encrypted_api_token, atlassian_username, created_at, updated_at
		 FROM atlassian_credentials
		 WHERE user_email = $1
		 `

	cred := &models.AtlassianCredential{}
	err := r.db.QueryRowContext(ctx, query, userEmail).Scan(
		&cred.UserEmail, &cred.EncryptedAPIToken, &cred.AtlassianUsername,
		&cred.CreatedAt, &cred.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return cred, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userEmail string) error {
	query := `DELETE FROM atlassian_credentials WHERE user_email = $1`

	if _, err := r.db.ExecContext(ctx, query, userEmail); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
