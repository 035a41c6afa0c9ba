package models

// AuthMethod tags the identity source that produced a resolved identity.
type AuthMethod string

const (
	MethodLocal      AuthMethod = "local"
	MethodFederated  AuthMethod = "federated"
	MethodAdminPanel AuthMethod = "admin_panel"
	MethodDemo       AuthMethod = "demo"
)

// Identity is the single per-request identity the rest of the system sees.
// It is recomputed on every request and never persisted.
type Identity struct {
	UserID      string
	DisplayName string
	Method      AuthMethod
	IsAdmin     bool
	SessionID   string
}

// Authenticated reports whether the identity comes from a real login.
// The demo fallback never counts as authenticated.
func (i Identity) Authenticated() bool {
	return i.Method != MethodDemo
}
