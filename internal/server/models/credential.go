// Package models holds the persisted and transient data structures of the
// credential-custody subsystem.
package models

import "time"

// AtlassianCredential is one user's third-party API credential. The token is
// stored encrypted; the row is keyed by user email with last-write-wins
// semantics on re-save.
type AtlassianCredential struct {
	UserEmail         string
	EncryptedAPIToken string
	AtlassianUsername string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
