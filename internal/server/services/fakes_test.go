package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/atlassist/internal/common"
	"github.com/dmitrijs2005/atlassist/internal/dbx"
	"github.com/dmitrijs2005/atlassist/internal/server/models"
	credentialsrepo "github.com/dmitrijs2005/atlassist/internal/server/repositories/credentials"
	sessionsrepo "github.com/dmitrijs2005/atlassist/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/atlassist/internal/server/repositories/users"
)

// newServiceDB returns a sqlmock-backed handle with enough transaction
// expectations for any single test. Repository behavior is faked separately,
// so only Begin/Commit/Rollback reach the mock.
func newServiceDB(t *testing.T) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 64; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// --- in-memory fakes ---

type fakeUsersRepo struct {
	users map[string]*models.LocalUser
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[string]*models.LocalUser)}
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.LocalUser) error {
	if _, ok := f.users[user.UserEmail]; ok {
		return common.ErrorAlreadyExists
	}
	u := *user
	u.IsActive = true
	u.CreatedAt = time.Now()
	f.users[user.UserEmail] = &u
	return nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, userEmail string) (*models.LocalUser, error) {
	u, ok := f.users[userEmail]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsersRepo) Exists(ctx context.Context, userEmail string) (bool, error) {
	_, ok := f.users[userEmail]
	return ok, nil
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]*models.LocalUser, error) {
	var result []*models.LocalUser
	for _, u := range f.users {
		copied := *u
		result = append(result, &copied)
	}
	return result, nil
}

func (f *fakeUsersRepo) RecordLoginSuccess(ctx context.Context, userEmail string, at time.Time) error {
	u, ok := f.users[userEmail]
	if !ok {
		return common.ErrorNotFound
	}
	u.FailedLoginAttempts = 0
	u.LastLogin = &at
	return nil
}

func (f *fakeUsersRepo) RecordLoginFailure(ctx context.Context, userEmail string) (int, error) {
	u, ok := f.users[userEmail]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.FailedLoginAttempts++
	return u.FailedLoginAttempts, nil
}

func (f *fakeUsersRepo) SetActive(ctx context.Context, userEmail string, active bool) error {
	u, ok := f.users[userEmail]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsActive = active
	if active {
		u.FailedLoginAttempts = 0
	}
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, userEmail string, hash, salt []byte) error {
	u, ok := f.users[userEmail]
	if !ok {
		return common.ErrorNotFound
	}
	now := time.Now()
	u.PasswordHash = hash
	u.Salt = salt
	u.FailedLoginAttempts = 0
	u.PasswordChangedAt = &now
	return nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, userEmail string) error {
	if _, ok := f.users[userEmail]; !ok {
		return common.ErrorNotFound
	}
	delete(f.users, userEmail)
	return nil
}

type fakeSessionsRepo struct {
	users    *fakeUsersRepo
	sessions map[string]*models.Session
}

func newFakeSessionsRepo(users *fakeUsersRepo) *fakeSessionsRepo {
	return &fakeSessionsRepo{users: users, sessions: make(map[string]*models.Session)}
}

func (f *fakeSessionsRepo) Create(ctx context.Context, session *models.Session) error {
	s := *session
	s.CreatedAt = time.Now()
	f.sessions[session.ID] = &s
	return nil
}

func (f *fakeSessionsRepo) GetWithAccount(ctx context.Context, sessionID string) (*sessionsrepo.SessionWithAccount, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u, ok := f.users.users[s.UserEmail]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &sessionsrepo.SessionWithAccount{
		Session:       *s,
		AccountActive: u.IsActive,
		DisplayName:   u.DisplayName,
		IsAdmin:       u.IsAdmin,
	}, nil
}

func (f *fakeSessionsRepo) MarkInactive(ctx context.Context, sessionID string) error {
	if s, ok := f.sessions[sessionID]; ok {
		s.IsActive = false
	}
	return nil
}

func (f *fakeSessionsRepo) DeactivateByUser(ctx context.Context, userEmail string) error {
	for _, s := range f.sessions {
		if s.UserEmail == userEmail {
			s.IsActive = false
		}
	}
	return nil
}

type fakeCredentialsRepo struct {
	rows map[string]*models.AtlassianCredential
}

func newFakeCredentialsRepo() *fakeCredentialsRepo {
	return &fakeCredentialsRepo{rows: make(map[string]*models.AtlassianCredential)}
}

func (f *fakeCredentialsRepo) Upsert(ctx context.Context, cred *models.AtlassianCredential) error {
	c := *cred
	c.UpdatedAt = time.Now()
	f.rows[cred.UserEmail] = &c
	return nil
}

func (f *fakeCredentialsRepo) GetByEmail(ctx context.Context, userEmail string) (*models.AtlassianCredential, error) {
	c, ok := f.rows[userEmail]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCredentialsRepo) Delete(ctx context.Context, userEmail string) error {
	delete(f.rows, userEmail)
	return nil
}

type fakeRepoManager struct {
	c *fakeCredentialsRepo
	u *fakeUsersRepo
	s *fakeSessionsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	u := newFakeUsersRepo()
	return &fakeRepoManager{
		c: newFakeCredentialsRepo(),
		u: u,
		s: newFakeSessionsRepo(u),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Credentials(db dbx.DBTX) credentialsrepo.Repository { return m.c }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository            { return m.u }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository      { return m.s }
