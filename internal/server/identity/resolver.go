package identity

import (
	"context"

	"github.com/dmitrijs2005/atlassist/internal/logging"
	"github.com/dmitrijs2005/atlassist/internal/server/auth"
	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

// FallbackUserID is the sentinel identity returned when no source resolves
// and no demo user is configured. UserID never returns an empty string.
const FallbackUserID = "demo_user"

// SessionValidator is the slice of the account service the resolver needs.
type SessionValidator interface {
	ValidateUserSession(ctx context.Context, sessionID string) *models.SessionInfo
}

// Resolver produces exactly one identity per request, trying sources in a
// fixed priority order: local session, federated principal, demo fallback.
type Resolver struct {
	sessions        SessionValidator
	federatedSecret []byte
	demoUserID      string
	logger          logging.Logger
}

func NewResolver(sessions SessionValidator, federatedSecret []byte, demoUserID string, logger logging.Logger) *Resolver {
	if demoUserID == "" {
		demoUserID = FallbackUserID
	}
	return &Resolver{
		sessions:        sessions,
		federatedSecret: federatedSecret,
		demoUserID:      demoUserID,
		logger:          logger.With("component", "resolver"),
	}
}

// Resolve returns the current identity. It never fails: when no source
// applies, the demo identity is returned.
func (r *Resolver) Resolve(ctx context.Context, sctx *SessionContext) models.Identity {

	// 1. active local-login session recorded for this request
	if sessionID := sctx.GetString(KeySessionID); sessionID != "" {
		if info := r.sessions.ValidateUserSession(ctx, sessionID); info != nil {
			method := models.MethodLocal
			if sctx.GetString(KeyAdminPanel) != "" {
				method = models.MethodAdminPanel
			}
			return models.Identity{
				UserID:      info.UserEmail,
				DisplayName: info.DisplayName,
				Method:      method,
				IsAdmin:     info.IsAdmin,
				SessionID:   info.SessionID,
			}
		}
		// stale token: drop it so the next request skips the lookup
		sctx.Delete(KeySessionID)
		sctx.Delete(KeyAdminPanel)
	}

	// 2. federated principal reported by the hosting environment
	if token := sctx.GetString(KeyFederatedToken); token != "" {
		claims, err := auth.VerifyFederatedToken(token, r.federatedSecret)
		if err == nil {
			return models.Identity{
				UserID:      claims.Subject,
				DisplayName: claims.DisplayName,
				Method:      models.MethodFederated,
				IsAdmin:     claims.IsAdmin,
			}
		}
		r.logger.Warn(ctx, "rejected federated token", "error", err)
		sctx.Delete(KeyFederatedToken)
	}

	// 3. demo fallback; never counts as authenticated
	return models.Identity{
		UserID:      r.demoUserID,
		DisplayName: "Demo User",
		Method:      models.MethodDemo,
	}
}

// UserID returns the resolved user id. Always non-empty.
func (r *Resolver) UserID(ctx context.Context, sctx *SessionContext) string {
	if id := r.Resolve(ctx, sctx).UserID; id != "" {
		return id
	}
	return FallbackUserID
}

// IsAuthenticated reports whether the resolved identity is a real login.
func (r *Resolver) IsAuthenticated(ctx context.Context, sctx *SessionContext) bool {
	return r.Resolve(ctx, sctx).Authenticated()
}
