package models

import "time"

// Session is a persisted login session. ID is an opaque bearer token; a
// session is valid only while it and its account are active and ExpiresAt is
// in the future.
type Session struct {
	ID        string
	UserEmail string
	CreatedAt time.Time
	ExpiresAt time.Time
	IsActive  bool
	IPAddress string
	UserAgent string
}

// SessionInfo joins a valid session with its account, as returned by
// session validation.
type SessionInfo struct {
	SessionID   string
	UserEmail   string
	DisplayName string
	IsAdmin     bool
	ExpiresAt   time.Time
}
