// Package httpapi exposes the auth and credential operations to the chat UI
// and the agent runtime over a thin HTTP facade.
package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/atlassist/internal/logging"
	"github.com/dmitrijs2005/atlassist/internal/server/identity"
	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

const sessionCookieName = "atlassist_session"

// federatedTokenHeader carries the host platform's signed principal token.
const federatedTokenHeader = "X-Federated-Token"

type ctxKey string

const identityKey ctxKey = "identity"

// AccountAPI is the slice of the account service the handlers use.
type AccountAPI interface {
	VerifyLocalUser(ctx context.Context, userEmail, password string) *models.UserInfo
	CreateUserSession(ctx context.Context, userEmail string, expiresIn time.Duration, ipAddress, userAgent string) string
	InvalidateUserSession(ctx context.Context, sessionID string) bool
	ValidateUserSession(ctx context.Context, sessionID string) *models.SessionInfo
}

// CredentialAPI is the slice of the credential service the handlers use.
type CredentialAPI interface {
	SaveCredentials(ctx context.Context, userEmail, apiKey, atlassianUsername string) bool
	GetCredentials(ctx context.Context, userEmail string) (string, string)
	DeleteCredentials(ctx context.Context, userEmail string) bool
}

type Handler struct {
	accounts        AccountAPI
	credentials     CredentialAPI
	resolver        *identity.Resolver
	guard           *identity.Guard
	store           *contextStore
	sessionValidity time.Duration
	logger          logging.Logger
}

func NewRouter(accounts AccountAPI, credentials CredentialAPI, resolver *identity.Resolver, guard *identity.Guard, sessionValidity time.Duration, logger logging.Logger) http.Handler {
	h := &Handler{
		accounts:        accounts,
		credentials:     credentials,
		resolver:        resolver,
		guard:           guard,
		store:           newContextStore(),
		sessionValidity: sessionValidity,
		logger:          logger.With("component", "httpapi"),
	}

	r := chi.NewRouter()
	r.Use(h.requestLogger)
	r.Use(h.identityMiddleware)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", h.handleLogin)
		api.Post("/auth/logout", h.handleLogout)
		api.Get("/auth/whoami", h.handleWhoami)

		api.Put("/credentials", h.handleSaveCredentials)
		api.Get("/credentials", h.handleGetCredentials)
		api.Delete("/credentials", h.handleDeleteCredentials)
	})

	return r
}

func identityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type identityResponse struct {
	UserID        string `json:"user_id"`
	DisplayName   string `json:"display_name"`
	Method        string `json:"method"`
	IsAdmin       bool   `json:"is_admin"`
	Authenticated bool   `json:"authenticated"`
}

func toIdentityResponse(id models.Identity) identityResponse {
	return identityResponse{
		UserID:        id.UserID,
		DisplayName:   id.DisplayName,
		Method:        string(id.Method),
		IsAdmin:       id.IsAdmin,
		Authenticated: id.Authenticated(),
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info := h.accounts.VerifyLocalUser(r.Context(), req.Email, req.Password)
	if info == nil {
		// one generic answer for unknown email, wrong password, and
		// deactivated account
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	token := h.accounts.CreateUserSession(r.Context(), info.UserEmail, h.sessionValidity, ip, r.UserAgent())
	if token == "" {
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, identityResponse{
		UserID:        info.UserEmail,
		DisplayName:   info.DisplayName,
		Method:        string(models.MethodLocal),
		IsAdmin:       info.IsAdmin,
		Authenticated: true,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		h.accounts.InvalidateUserSession(r.Context(), c.Value)
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleWhoami(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "identity not resolved")
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(id))
}

func (h *Handler) handleSaveCredentials(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}

	var req struct {
		APIKey            string `json:"api_key"`
		AtlassianUsername string `json:"atlassian_username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.credentials.SaveCredentials(r.Context(), id.UserID, req.APIKey, req.AtlassianUsername) {
		writeError(w, http.StatusInternalServerError, "could not save credentials")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetCredentials(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}

	// the decrypted token stays server-side; the UI only learns whether a
	// credential is configured and for which Atlassian account
	apiKey, username := h.credentials.GetCredentials(r.Context(), id.UserID)
	writeJSON(w, http.StatusOK, map[string]any{
		"configured":         apiKey != "",
		"atlassian_username": username,
	})
}

func (h *Handler) handleDeleteCredentials(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}

	if !h.credentials.DeleteCredentials(r.Context(), id.UserID) {
		writeError(w, http.StatusInternalServerError, "could not delete credentials")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireAuthenticated(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := identityFromContext(r.Context())
	if !ok || !id.Authenticated() {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return models.Identity{}, false
	}
	return id, true
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionValidity.Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
