// Package credentials persists the bearer credential so a session survives
// a restart. At most one credential is stored at a time.
package credentials

import (
	"context"
	"time"
)

// StoredCredential is the locally persisted bearer token. ExpiresAt bounds
// its local storage lifetime; the zero value means the row never expires
// locally (the "remember me" case). Server-side validity is checked
// separately during bootstrap.
type StoredCredential struct {
	Token     string
	ExpiresAt time.Time
}

type Repository interface {
	// Load returns the stored credential, or (nil, nil) when none exists.
	Load(ctx context.Context) (*StoredCredential, error)

	// Save stores the credential, replacing any previous one.
	Save(ctx context.Context, cred StoredCredential) error

	// Clear removes the stored credential. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
