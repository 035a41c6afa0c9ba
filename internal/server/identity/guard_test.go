package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

type recordingInvalidator struct {
	users []string
}

func (r *recordingInvalidator) InvalidateUser(ctx context.Context, userID string) error {
	r.users = append(r.users, userID)
	return nil
}

func newTestGuard(t *testing.T, sessions map[string]*models.SessionInfo) (*Guard, *recordingInvalidator) {
	t.Helper()
	inv := &recordingInvalidator{}
	resolver := NewResolver(&fakeSessionValidator{sessions: sessions}, testSecret, "demo_user", testLogger())
	return NewGuard(resolver, inv, testLogger()), inv
}

func TestHandleUserChange_FirstCallRecordsWithoutClearing(t *testing.T) {
	g, inv := newTestGuard(t, nil)

	sctx := NewSessionContext()
	sctx.Set("memoria_usuario", "cached memories")

	changed := g.HandleUserChange(context.Background(), sctx)
	assert.False(t, changed)
	assert.Equal(t, "demo_user", sctx.GetString(KeyLastKnownUser))

	// nothing cleared, nothing invalidated on first sight
	v, ok := sctx.Get("memoria_usuario")
	require.True(t, ok)
	assert.Equal(t, "cached memories", v)
	assert.Empty(t, inv.users)
}

func TestHandleUserChange_SameUserNoClear(t *testing.T) {
	g, inv := newTestGuard(t, nil)

	sctx := NewSessionContext()
	g.HandleUserChange(context.Background(), sctx)
	sctx.Set("memoria_usuario", "cached")

	changed := g.HandleUserChange(context.Background(), sctx)
	assert.False(t, changed)
	_, ok := sctx.Get("memoria_usuario")
	assert.True(t, ok)
	assert.Empty(t, inv.users)
}

func TestHandleUserChange_ClearsStateAndInvalidatesOldUser(t *testing.T) {
	sessions := map[string]*models.SessionInfo{
		"tok1": {SessionID: "tok1", UserEmail: "a@x.com", DisplayName: "Alice"},
	}
	g, inv := newTestGuard(t, sessions)

	sctx := NewSessionContext()
	g.HandleUserChange(context.Background(), sctx) // records demo_user

	// user-scoped state accumulated by the demo user
	sctx.Set("memoria_usuario", "demo memories")
	sctx.Set("credential_cache", "demo creds")

	// now a real login appears in the same process
	sctx.Set(KeySessionID, "tok1")

	changed := g.HandleUserChange(context.Background(), sctx)
	assert.True(t, changed)

	// user-scoped keys are gone, reserved keys survive
	_, ok := sctx.Get("memoria_usuario")
	assert.False(t, ok)
	_, ok = sctx.Get("credential_cache")
	assert.False(t, ok)
	assert.Equal(t, "tok1", sctx.GetString(KeySessionID))
	assert.Equal(t, "a@x.com", sctx.GetString(KeyLastKnownUser))

	// downstream cache evicted for the previous identity
	assert.Equal(t, []string{"demo_user"}, inv.users)
}

func TestHandleUserChange_SecondCallAfterChangeIsStable(t *testing.T) {
	sessions := map[string]*models.SessionInfo{
		"tok1": {SessionID: "tok1", UserEmail: "a@x.com"},
	}
	g, inv := newTestGuard(t, sessions)

	sctx := NewSessionContext()
	sctx.Set(KeySessionID, "tok1")

	g.HandleUserChange(context.Background(), sctx)
	changed := g.HandleUserChange(context.Background(), sctx)

	assert.False(t, changed)
	assert.Empty(t, inv.users)
}

func TestSessionContext_ClearUserScopedKeepsExplicitExceptions(t *testing.T) {
	sctx := NewSessionContext()
	sctx.Set("memoria_usuario", 1)
	sctx.Set("theme", "dark")
	sctx.Set(KeySessionID, "tok")

	sctx.ClearUserScoped("theme")

	_, ok := sctx.Get("memoria_usuario")
	assert.False(t, ok)
	assert.Equal(t, "dark", sctx.GetString("theme"))
	assert.Equal(t, "tok", sctx.GetString(KeySessionID))
}

func TestHTTPInvalidator_PostsEviction(t *testing.T) {
	var gotMethod, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotUser = r.URL.Query().Get("user")
	}))
	defer srv.Close()

	inv := NewHTTPInvalidator(srv.URL + "/evict")
	err := inv.InvalidateUser(context.Background(), "old@x.com")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "old@x.com", gotUser)
}

func TestHTTPInvalidator_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	inv := NewHTTPInvalidator(srv.URL)
	assert.Error(t, inv.InvalidateUser(context.Background(), "u"))
}
