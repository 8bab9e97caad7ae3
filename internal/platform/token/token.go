// Package token validates the HMAC-signed bearer tokens issued to registry
// callers by the surrounding identity infrastructure.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"attestry/internal/platform/middleware"
)

// Validator verifies HS256 tokens with a shared signing key.
type Validator struct {
	signingKey []byte
}

// NewValidator constructs a Validator for the given signing key.
func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a token, returning the registry-relevant
// claims. Expired and malformed tokens are rejected.
func (v *Validator) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("token is not valid")
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &middleware.TokenClaims{Subject: subject}, nil
}

// Sign issues a short-lived token for the given subject. Used by tests and
// local tooling; production tokens come from the external identity provider.
func (v *Validator) Sign(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.signingKey)
}
