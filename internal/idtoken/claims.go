// Package idtoken verifies the bearer credentials the backend receives.
//
// Production verification checks Firebase ID tokens against Google's published
// keys. A shared-key HS256 service covers local development and tests, where
// no Firebase project exists.
package idtoken

import (
	"context"

	authmw "gatehouse/pkg/platform/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the ID token claims the backend reads.
type Claims struct {
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified"`
	Name          string         `json:"name,omitempty"`
	Picture       string         `json:"picture,omitempty"`
	AuthTime      int64          `json:"auth_time,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
	Firebase      map[string]any `json:"firebase,omitempty"`
	jwt.RegisteredClaims
}

// UID is the subject, falling back to user_id.
func (c *Claims) UID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// Verifier checks a raw token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// ToMiddlewareIdentity converts verified claims into what handlers read.
func ToMiddlewareIdentity(c *Claims) *authmw.Identity {
	return &authmw.Identity{
		UID:           c.UID(),
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Name:          c.Name,
		Picture:       c.Picture,
		AuthTime:      c.AuthTime,
		Firebase:      c.Firebase,
	}
}

// MiddlewareAdapter exposes a Verifier as an authmw.TokenVerifier.
type MiddlewareAdapter struct {
	verifier Verifier
}

func NewMiddlewareAdapter(v Verifier) *MiddlewareAdapter {
	return &MiddlewareAdapter{verifier: v}
}

func (a *MiddlewareAdapter) VerifyToken(ctx context.Context, raw string) (*authmw.Identity, error) {
	claims, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareIdentity(claims), nil
}
