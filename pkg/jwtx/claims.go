// Package jwtx issues and validates the signed access tokens carried by
// clients. Tokens are self-contained: subject, authority set, issued-at and
// expiry are all embedded and verifiable without a database round-trip.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTLs. Access tokens are short-lived by design; revocation is
// achieved by letting them expire, not by consulting a revocation list.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the access-token claims. Changes should stay additive to
// preserve compatibility with already-issued tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Authorities is the resolved authority set: permission action strings
	// plus the synthesized ROLE_<name> authority.
	Authorities []string `json:"authorities,omitempty"`

	// Role is the owning role's name, for client display.
	Role string `json:"role,omitempty"`

	// FullName is the display name for the principal.
	FullName string `json:"full_name,omitempty"`
}

// NewAccessClaims builds minimally-correct claims. The subject is the
// principal's stable lookup key (the email).
func NewAccessClaims(
	subject string,
	authorities []string,
	role, fullName string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Authorities: authorities,
		Role:        role,
		FullName:    fullName,
	}
}

// NewJTI returns a unique identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateIssuer checks the issuer matches the expected value. An empty
// expected value enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// HasAuthority reports whether the claims carry the exact authority string.
// No hierarchy or implication is evaluated; membership is exact-match only.
func (c *Claims) HasAuthority(authority string) bool {
	for _, a := range c.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}
