package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/atlassist/internal/server/identity"
)

// clientCookieName identifies the browser tab's session-state bucket, the
// equivalent of the host framework's per-connection session storage. It is
// distinct from the login cookie: the bucket outlives logins and logouts so
// the user-change guard can compare identities across them.
const clientCookieName = "atlassist_client"

// contextStore keeps one SessionContext per client bucket.
type contextStore struct {
	mu       sync.Mutex
	contexts map[string]*identity.SessionContext
}

func newContextStore() *contextStore {
	return &contextStore{contexts: make(map[string]*identity.SessionContext)}
}

func (s *contextStore) get(clientID string) *identity.SessionContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	sctx, ok := s.contexts[clientID]
	if !ok {
		sctx = identity.NewSessionContext()
		s.contexts[clientID] = sctx
	}
	return sctx
}

// requestLogger tags every request with a generated id and logs method, path,
// status and duration on completion.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		h.logger.Info(r.Context(), "request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start).String(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// identityMiddleware loads the client's session context, syncs the identity
// sources carried by the request into it, runs the user-change guard, and
// stores the resolved identity for the handlers.
func (h *Handler) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := h.clientID(w, r)
		sctx := h.store.get(clientID)

		if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
			sctx.Set(identity.KeySessionID, c.Value)
		} else {
			sctx.Delete(identity.KeySessionID)
		}
		if token := r.Header.Get(federatedTokenHeader); token != "" {
			sctx.Set(identity.KeyFederatedToken, token)
		} else {
			sctx.Delete(identity.KeyFederatedToken)
		}

		h.guard.HandleUserChange(r.Context(), sctx)
		id := h.resolver.Resolve(r.Context(), sctx)

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(clientCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
