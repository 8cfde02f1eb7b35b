package google

import (
	"context"
	"errors"

	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"google.golang.org/api/idtoken"
)

// GoogleVerifier accepts Google ID tokens issued for clientID and uses the
// account's email as the user id.
type GoogleVerifier struct {
	clientID string
}

func NewVerifier(clientID string) ports.IdentityVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*ports.Identity, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, err
	}
	email, ok := payload.Claims["email"].(string)
	if !ok || email == "" {
		return nil, errors.New("email not found in claims")
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("email is not verified")
	}
	return &ports.Identity{UserID: email, Email: email}, nil
}
