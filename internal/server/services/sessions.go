package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/atlassist/internal/common"
	"github.com/dmitrijs2005/atlassist/internal/dbx"
	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

// CreateUserSession issues a fresh opaque session token for the account and
// persists it. expiresIn <= 0 falls back to the configured default. Returns
// "" on failure; the token string is the only session handle handed out.
func (s *AccountService) CreateUserSession(ctx context.Context, userEmail string, expiresIn time.Duration, ipAddress, userAgent string) string {
	if expiresIn <= 0 {
		expiresIn = s.sessionValidity
	}

	token, err := common.MakeRandHexString(SessionTokenBytes)
	if err != nil {
		s.logger.Error(ctx, "error generating session token", "error", err)
		return ""
	}

	session := &models.Session{
		ID:        token,
		UserEmail: userEmail,
		ExpiresAt: time.Now().Add(expiresIn),
		IsActive:  true,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Sessions(tx).Create(ctx, session)
	})
	if err != nil {
		s.logger.Error(ctx, "error creating session", "user", userEmail, "error", err)
		return ""
	}

	return token
}

// ValidateUserSession returns session info when the token is active, its
// account is active, and it has not expired. An expired-but-still-active row
// is marked inactive as a side effect (lazy expiry) before returning nil.
func (s *AccountService) ValidateUserSession(ctx context.Context, sessionID string) *models.SessionInfo {
	if sessionID == "" {
		return nil
	}

	var info *models.SessionInfo

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Sessions(tx)

		row, err := repo.GetWithAccount(ctx, sessionID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}

		if !row.Session.IsActive || !row.AccountActive {
			return nil
		}

		if !time.Now().Before(row.Session.ExpiresAt) {
			return repo.MarkInactive(ctx, sessionID)
		}

		info = &models.SessionInfo{
			SessionID:   row.Session.ID,
			UserEmail:   row.Session.UserEmail,
			DisplayName: row.DisplayName,
			IsAdmin:     row.IsAdmin,
			ExpiresAt:   row.Session.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "error validating session", "error", err)
		return nil
	}

	return info
}

// InvalidateUserSession marks the session inactive. Idempotent: an unknown
// or already-inactive token still reports success.
func (s *AccountService) InvalidateUserSession(ctx context.Context, sessionID string) bool {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Sessions(tx).MarkInactive(ctx, sessionID)
	})
	if err != nil {
		s.logger.Error(ctx, "error invalidating session", "error", err)
		return false
	}

	return true
}
