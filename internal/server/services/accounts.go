package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/atlassist/internal/common"
	"github.com/dmitrijs2005/atlassist/internal/dbx"
	"github.com/dmitrijs2005/atlassist/internal/logging"
	"github.com/dmitrijs2005/atlassist/internal/server/models"
	"github.com/dmitrijs2005/atlassist/internal/server/repositories/repomanager"
)

// MaxFailedLoginAttempts is the consecutive-failure threshold after which an
// account is deactivated until an administrator re-enables it.
const MaxFailedLoginAttempts = 5

const saltSize = 16

// SessionTokenBytes is the entropy of an opaque session token (hex-encoded
// on the wire, so 64 characters).
const SessionTokenBytes = 32

// AccountService manages local login accounts and their sessions.
type AccountService struct {
	db              *sql.DB
	repos           repomanager.RepositoryManager
	sessionValidity time.Duration
	logger          logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, sessionValidity time.Duration, logger logging.Logger) *AccountService {
	return &AccountService{
		db:              db,
		repos:           m,
		sessionValidity: sessionValidity,
		logger:          logger.With("service", "accounts"),
	}
}

// hashPassword derives an argon2id hash of password with the given salt.
// Deliberately slow; never use a general-purpose hash here.
func hashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
}

// CreateLocalUser provisions a new account with a fresh random salt.
// Returns false when the email is already taken or on a persistence error.
func (s *AccountService) CreateLocalUser(ctx context.Context, userEmail, displayName, password string, isAdmin bool) bool {
	salt := common.GenerateRandByteArray(saltSize)

	user := &models.LocalUser{
		UserEmail:    userEmail,
		DisplayName:  displayName,
		PasswordHash: hashPassword(password, salt),
		Salt:         salt,
		IsAdmin:      isAdmin,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Users(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Warn(ctx, "account already exists", "user", userEmail)
		} else {
			s.logger.Error(ctx, "error creating account", "user", userEmail, "error", err)
		}
		return false
	}

	return true
}

// VerifyLocalUser checks the password for an active account. On success the
// failed-attempt counter resets and last_login is stamped. On failure the
// counter increments; reaching MaxFailedLoginAttempts deactivates the
// account and its sessions. The caller cannot distinguish "no such account"
// from "wrong password" — both return nil.
func (s *AccountService) VerifyLocalUser(ctx context.Context, userEmail, password string) *models.UserInfo {
	var info *models.UserInfo

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		user, err := repo.GetByEmail(ctx, userEmail)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}

		if !user.IsActive {
			s.logger.Warn(ctx, "login attempt on inactive account", "user", userEmail)
			return nil
		}

		candidate := hashPassword(password, user.Salt)
		if subtle.ConstantTimeCompare(user.PasswordHash, candidate) == 1 {
			now := time.Now()
			if err := repo.RecordLoginSuccess(ctx, userEmail, now); err != nil {
				return err
			}
			info = &models.UserInfo{
				UserEmail:   user.UserEmail,
				DisplayName: user.DisplayName,
				IsAdmin:     user.IsAdmin,
				LastLogin:   &now,
			}
			return nil
		}

		attempts, err := repo.RecordLoginFailure(ctx, userEmail)
		if err != nil {
			return err
		}
		if attempts >= MaxFailedLoginAttempts {
			if err := repo.SetActive(ctx, userEmail, false); err != nil {
				return err
			}
			if err := s.repos.Sessions(tx).DeactivateByUser(ctx, userEmail); err != nil {
				return err
			}
			s.logger.Warn(ctx, "account deactivated after repeated failures",
				"user", userEmail, "attempts", attempts)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "error verifying account", "user", userEmail, "error", err)
		return nil
	}

	return info
}

// LocalUserExists reports whether an account with the email exists,
// regardless of its active state.
func (s *AccountService) LocalUserExists(ctx context.Context, userEmail string) bool {
	exists, err := s.repos.Users(s.db).Exists(ctx, userEmail)
	if err != nil {
		s.logger.Error(ctx, "error checking account existence", "user", userEmail, "error", err)
		return false
	}
	return exists
}

// ListLocalUsers returns all accounts with secret material wiped.
func (s *AccountService) ListLocalUsers(ctx context.Context) []*models.LocalUser {
	list, err := s.repos.Users(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "error listing accounts", "error", err)
		return nil
	}

	for _, u := range list {
		u.PasswordHash = nil
		u.Salt = nil
	}

	return list
}

// UpdateLocalUserPassword re-hashes with a brand-new salt and resets the
// failed-attempt counter.
func (s *AccountService) UpdateLocalUserPassword(ctx context.Context, userEmail, newPassword string) bool {
	salt := common.GenerateRandByteArray(saltSize)
	hash := hashPassword(newPassword, salt)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Users(tx).UpdatePassword(ctx, userEmail, hash, salt)
	})
	if err != nil {
		s.logger.Error(ctx, "error updating password", "user", userEmail, "error", err)
		return false
	}

	return true
}

// SetLocalUserStatus activates or deactivates the account. Reactivation
// after a lockout goes through here; deactivation kills the account's live
// sessions. Setting the state it already has is a no-op success.
func (s *AccountService) SetLocalUserStatus(ctx context.Context, userEmail string, active bool) bool {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		user, err := repo.GetByEmail(ctx, userEmail)
		if err != nil {
			return err
		}
		if user.IsActive == active {
			return nil
		}

		if err := repo.SetActive(ctx, userEmail, active); err != nil {
			return err
		}

		if !active {
			return s.repos.Sessions(tx).DeactivateByUser(ctx, userEmail)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "error setting account status", "user", userEmail, "error", err)
		return false
	}

	return true
}

// DeleteLocalUser removes the account; its sessions cascade away at the
// database level.
func (s *AccountService) DeleteLocalUser(ctx context.Context, userEmail string) bool {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Users(tx).Delete(ctx, userEmail)
	})
	if err != nil {
		s.logger.Error(ctx, "error deleting account", "user", userEmail, "error", err)
		return false
	}

	return true
}
