package idtoken

import (
	"context"
	"errors"
	"time"

	dErrors "gatehouse/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	msgExpired = "token has expired"
	msgInvalid = "invalid token"
)

// HMACService issues and verifies HS256 ID tokens with a shared key.
type HMACService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewHMACService(signingKey, issuer, audience string) *HMACService {
	return &HMACService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// Issue signs claims for uid, valid for expiresIn.
func (s *HMACService) Issue(uid string, claims Claims, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   uid,
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    s.issuer,
		Audience:  []string{s.audience},
		ID:        uuid.NewString(),
	}
	if claims.AuthTime == 0 {
		claims.AuthTime = now.Unix()
	}
	if claims.UserID == "" {
		claims.UserID = uid
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

func (s *HMACService) Verify(_ context.Context, raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, msgExpired)
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalid)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UID() == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalid)
	}
	return claims, nil
}
