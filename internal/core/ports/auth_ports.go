package ports

import "context"

type Identity struct {
	UserID string
	Email  string
}

// IdentityVerifier turns a bearer credential into a trusted user identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
