package identity

import (
	"context"

	"github.com/dmitrijs2005/atlassist/internal/logging"
)

// MemoryInvalidator evicts the downstream memory-service cache for a user
// whose identity is no longer current.
type MemoryInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// Guard detects, once per request, that the resolved identity differs from
// the previous request's identity and flushes user-scoped state so caches
// never leak across users sharing a process.
type Guard struct {
	resolver    *Resolver
	invalidator MemoryInvalidator
	logger      logging.Logger
}

func NewGuard(resolver *Resolver, invalidator MemoryInvalidator, logger logging.Logger) *Guard {
	return &Guard{
		resolver:    resolver,
		invalidator: invalidator,
		logger:      logger.With("component", "user_change_guard"),
	}
}

// HandleUserChange compares the current identity against the last recorded
// one. On a change it clears all user-scoped context keys (reserved keys
// survive), evicts the old user's memory cache, records the new identity,
// and returns true. The comparison and the clear happen under one lock, so
// no other reader of the context can observe stale user-scoped state in
// between.
func (g *Guard) HandleUserChange(ctx context.Context, sctx *SessionContext) bool {
	// resolving may hit the database; keep it outside the lock
	currentID := g.resolver.UserID(ctx, sctx)

	sctx.mu.Lock()
	lastID, _ := sctx.values[KeyLastKnownUser].(string)

	if lastID == "" || lastID == currentID {
		sctx.values[KeyLastKnownUser] = currentID
		sctx.mu.Unlock()
		return false
	}

	sctx.clearUserScopedLocked()
	sctx.values[KeyLastKnownUser] = currentID
	sctx.mu.Unlock()

	g.logger.Info(ctx, "user change detected", "previous", lastID, "current", currentID)

	if err := g.invalidator.InvalidateUser(ctx, lastID); err != nil {
		// the local clear already happened; a failed downstream eviction is
		// logged, not propagated
		g.logger.Error(ctx, "memory cache invalidation failed", "user", lastID, "error", err)
	}

	return true
}
