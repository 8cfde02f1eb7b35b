package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

const DefaultIssuer = "livepoll"

type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Manager verifies HS256 access tokens whose subject is the user id. Issue is
// there for tooling and tests; the identity provider that normally signs the
// tokens is external.
type Manager struct {
	secret []byte
	issuer string
}

var _ ports.IdentityVerifier = (*Manager)(nil)

func NewManager(secret, issuer string) *Manager {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Manager{secret: []byte(secret), issuer: issuer}
}

func (m *Manager) Issue(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Verify(_ context.Context, tokenStr string) (*ports.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("invalid access token: missing subject")
	}

	return &ports.Identity{UserID: claims.Subject, Email: claims.Email}, nil
}
