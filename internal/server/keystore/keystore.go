// Package keystore loads and persists the process-wide encryption key.
//
// The key is generated once on first use and then reused for the lifetime of
// the deployment. There is no rotation: whichever backend holds the key is
// the single point of recovery for every encrypted credential.
package keystore

import "context"

// KeyStore yields the raw symmetric key material, creating it on first use.
type KeyStore interface {
	// LoadOrCreate returns the persisted key, generating and persisting a
	// fresh one if none exists yet.
	LoadOrCreate(ctx context.Context) ([]byte, error)
}
