// Package identity resolves the current user from competing identity
// sources and guards user-scoped state against leaking across identities.
package identity

import "sync"

// Reserved session-context keys. They survive user-scoped clears: they are
// exactly the state the next request needs to resolve its identity again.
const (
	// KeySessionID holds the opaque token of an active local login.
	KeySessionID = "auth_session_id"

	// KeyFederatedToken holds the signed token of a federated principal, as
	// reported by the hosting environment.
	KeyFederatedToken = "federated_token"

	// KeyAdminPanel marks a local session established through the admin panel.
	KeyAdminPanel = "admin_panel_login"

	// KeyLastKnownUser records the identity resolved at the end of the
	// previous request.
	KeyLastKnownUser = "last_known_user"
)

var reservedKeys = map[string]struct{}{
	KeySessionID:      {},
	KeyFederatedToken: {},
	KeyAdminPanel:     {},
	KeyLastKnownUser:  {},
}

// SessionContext is an explicit key-value view of the host framework's
// per-request session state. All access goes through the mutex so the
// user-change guard can clear it atomically.
type SessionContext struct {
	mu     sync.Mutex
	values map[string]any
}

func NewSessionContext() *SessionContext {
	return &SessionContext{values: make(map[string]any)}
}

func (c *SessionContext) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value for key when it is a string, "" otherwise.
func (c *SessionContext) GetString(key string) string {
	v, ok := c.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (c *SessionContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

func (c *SessionContext) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Keys returns a snapshot of the currently set keys.
func (c *SessionContext) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	return keys
}

// ClearUserScoped removes every non-reserved key. Extra keys to preserve can
// be passed explicitly.
func (c *SessionContext) ClearUserScoped(except ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearUserScopedLocked(except...)
}

func (c *SessionContext) clearUserScopedLocked(except ...string) {
	keep := make(map[string]struct{}, len(reservedKeys)+len(except))
	for k := range reservedKeys {
		keep[k] = struct{}{}
	}
	for _, k := range except {
		keep[k] = struct{}{}
	}

	for k := range c.values {
		if _, ok := keep[k]; !ok {
			delete(c.values, k)
		}
	}
}
