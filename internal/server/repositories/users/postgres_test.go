package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/atlassist/internal/common"
	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

func newSQLMockDB(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func userColumns() []string {
	return []string{
		"user_email", "display_name", "password_hash", "salt", "is_active", "is_admin",
		"created_at", "updated_at", "last_login", "failed_login_attempts", "password_changed_at",
	}
}

func TestCreate(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	mock.ExpectExec(`INSERT INTO local_users`).
		WithArgs("a@x.com", "Alice", []byte{1}, []byte{2}, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.LocalUser{
		UserEmail:    "a@x.com",
		DisplayName:  "Alice",
		PasswordHash: []byte{1},
		Salt:         []byte{2},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	mock.ExpectExec(`INSERT INTO local_users`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := repo.Create(context.Background(), &models.LocalUser{UserEmail: "a@x.com"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestGetByEmail(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	now := time.Now()
	rows := sqlmock.NewRows(userColumns()).
		AddRow("a@x.com", "Alice", []byte{1}, []byte{2}, true, false, now, now, nil, 3, nil)

	mock.ExpectQuery(`SELECT user_email, display_name`).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	user, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if user.FailedLoginAttempts != 3 || !user.IsActive || user.LastLogin != nil {
		t.Fatalf("unexpected row: %+v", user)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	mock.ExpectQuery(`SELECT user_email, display_name`).
		WithArgs("ghost@x.com").
		WillReturnRows(sqlmock.NewRows(userColumns()))

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestRecordLoginFailure_ReturnsNewCounter(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	mock.ExpectQuery(`UPDATE local_users`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"failed_login_attempts"}).AddRow(5))

	attempts, err := repo.RecordLoginFailure(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("RecordLoginFailure error: %v", err)
	}
	if attempts != 5 {
		t.Fatalf("want 5 attempts, got %d", attempts)
	}
}

func TestSetActive_NotFound(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	mock.ExpectExec(`UPDATE local_users`).
		WithArgs("ghost@x.com", false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetActive(context.Background(), "ghost@x.com", false)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	now := time.Now()
	rows := sqlmock.NewRows(userColumns()).
		AddRow("a@x.com", "Alice", []byte{1}, []byte{2}, true, true, now, now, &now, 0, nil).
		AddRow("b@x.com", "Bob", []byte{3}, []byte{4}, false, false, now, now, nil, 5, nil)

	mock.ExpectQuery(`SELECT user_email, display_name`).WillReturnRows(rows)

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("want 2 users, got %d", len(list))
	}
	if list[1].FailedLoginAttempts != 5 || list[1].IsActive {
		t.Fatalf("unexpected second row: %+v", list[1])
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	mock.ExpectExec(`DELETE FROM local_users`).
		WithArgs("ghost@x.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
