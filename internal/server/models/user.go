package models

import "time"

// LocalUser is a locally provisioned login account. PasswordHash and Salt are
// stored separately; the hash is argon2id over the password with the salt.
type LocalUser struct {
	UserEmail           string
	DisplayName         string
	PasswordHash        []byte
	Salt                []byte
	IsActive            bool
	IsAdmin             bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	LastLogin           *time.Time
	FailedLoginAttempts int
	PasswordChangedAt   *time.Time
}

// UserInfo is the subset of LocalUser returned to callers after a successful
// password verification.
type UserInfo struct {
	UserEmail   string
	DisplayName string
	IsAdmin     bool
	LastLogin   *time.Time
}
