package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/atlassist/internal/common"
	"github.com/dmitrijs2005/atlassist/internal/dbx"
	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

// uniqueViolation is the postgres SQLSTATE for unique-constraint errors.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.LocalUser) error {

	query :=
		`INSERT INTO local_users (user_email, display_name, password_hash, salt, is_active, is_admin)
		 VALUES ($1, $2, $3, $4, TRUE, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.UserEmail, user.DisplayName, user.PasswordHash, user.Salt, user.IsAdmin)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, userEmail string) (*models.LocalUser, error) {
	query :=
		`SELECT user_email, display_name, password_hash, salt, is_active, is_admin,
		        created_at, updated_at, last_login, failed_login_attempts, password_changed_at
		 FROM local_users
		 WHERE user_email = $1
		 `

	user := &models.LocalUser{}
	err := r.db.QueryRowContext(ctx, query, userEmail).Scan(
		&user.UserEmail, &user.DisplayName, &user.PasswordHash, &user.Salt,
		&user.IsActive, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
		&user.LastLogin, &user.FailedLoginAttempts, &user.PasswordChangedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, userEmail string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM local_users WHERE user_email = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userEmail).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.LocalUser, error) {
	query :=
		`SELECT user_email, display_name, password_hash, salt, is_active, is_admin,
		        created_at, updated_at, last_login, failed_login_attempts, password_changed_at
		 FROM local_users
		 ORDER BY user_email
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.LocalUser
	for rows.Next() {
		user := &models.LocalUser{}
		if err := rows.Scan(
			&user.UserEmail, &user.DisplayName, &user.PasswordHash, &user.Salt,
			&user.IsActive, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
			&user.LastLogin, &user.FailedLoginAttempts, &user.PasswordChangedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) RecordLoginSuccess(ctx context.Context, userEmail string, at time.Time) error {
	query :=
		`UPDATE local_users
		 SET failed_login_attempts = 0, last_login = $2, updated_at = now()
		 WHERE user_email = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userEmail, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) RecordLoginFailure(ctx context.Context, userEmail string) (int, error) {
	query :=
		`UPDATE local_users
		 SET failed_login_attempts = failed_login_attempts + 1, updated_at = now()
		 WHERE user_email = $1
		 RETURNING failed_login_attempts
		 `

	var attempts int
	err := r.db.QueryRowContext(ctx, query, userEmail).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return attempts, nil
}

// SetActive toggles the account state. Reactivating also clears the
// failed-attempt counter so the account does not re-lock on the next miss.
func (r *PostgresRepository) SetActive(ctx context.Context, userEmail string, active bool) error {
	query :=
		`UPDATE local_users
		 SET is_active = $2, updated_at = now(),
		     failed_login_attempts = CASE WHEN $2 THEN 0 ELSE failed_login_attempts END
		 WHERE user_email = $1
		 `

	res, err := r.db.ExecContext(ctx, query, userEmail, active)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, userEmail string, hash, salt []byte) error {
	query :=
		`UPDATE local_users
		 SET password_hash = $2, salt = $3, failed_login_attempts = 0,
		     password_changed_at = now(), updated_at = now()
		 WHERE user_email = $1
		 `

	res, err := r.db.ExecContext(ctx, query, userEmail, hash, salt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userEmail string) error {
	query := `DELETE FROM local_users WHERE user_email = $1`

	res, err := r.db.ExecContext(ctx, query, userEmail)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
