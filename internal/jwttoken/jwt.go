// Package jwttoken validates the access tokens issued by the upstream auth
// authority. This service never issues tokens; it only verifies signature,
// expiry, issuer, and audience, and hands the raw subject to the caller.
package jwttoken

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"donorhub/internal/platform/middleware"
	dErrors "donorhub/pkg/domain-errors"
)

// Claims represents the claims we expect on access tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService handles JWT validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey, issuer, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// ValidateToken verifies the token and returns the claims the middleware
// cares about. Cryptographic or temporal failures map to CodeUnauthorized.
func (s *JWTService) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return &middleware.JWTClaims{
		Subject: claims.Subject,
		JTI:     claims.ID,
	}, nil
}
