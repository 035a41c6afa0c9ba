package sessions

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

func (r *PostgresRepository) Create(ctx context.Context, session *models.Session) error {

	query :=
		`INSERT INTO local_sessions (session_id, user_email, expires_at, is_active, ip_address, user_agent)
		 VALUES ($1, $2, $3, TRUE, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserEmail, session.ExpiresAt, session.IPAddress, session.UserAgent)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetWithAccount(ctx context.Context, sessionID string) (*SessionWithAccount, error) {
	query :=
		`SELECT s.session_id, s.user_email, s.created_at, s.expires_at, s.is_active,
		        s.ip_address, s.user_agent, u.is_active, u.display_name, u.is_admin
		 FROM local_sessions s
		 JOIN local_users u ON u.user_email = s.user_email
		 WHERE s.session_id = $1
		 `

	row := &SessionWithAccount{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&row.Session.ID, &row.Session.UserEmail, &row.Session.CreatedAt,
		&row.Session.ExpiresAt, &row.Session.IsActive,
		&row.Session.IPAddress, &row.Session.UserAgent,
		&row.AccountActive, &row.DisplayName, &row.IsAdmin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return row, nil
}

func (r *PostgresRepository) MarkInactive(ctx context.Context, sessionID string) error {
	query :=
		`UPDATE local_sessions
		 SET is_active = FALSE
		 WHERE session_id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) DeactivateByUser(ctx context.Context, userEmail string) error {
	query :=
		`UPDATE local_sessions
		 SET is_active = FALSE
		 WHERE user_email = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userEmail); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
