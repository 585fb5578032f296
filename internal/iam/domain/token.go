package domain

import "time"

// TokenPair is what a successful credential or refresh exchange returns:
// the short-lived access token (JWT) and the opaque refresh token.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // seconds until access token expiry
}

// RefreshToken models the stored refresh session record in the DB. The raw
// token is never persisted, only its deterministic fingerprint.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Introspection is the result of inspecting an access token. Inactive
// tokens carry no identity fields.
type Introspection struct {
	Active      bool     `json:"active"`
	Subject     string   `json:"sub,omitempty"`
	Authorities []string `json:"authorities,omitempty"`
	Role        string   `json:"role,omitempty"`
	FullName    string   `json:"full_name,omitempty"`
	ExpiresAt   int64    `json:"exp,omitempty"`
	IssuedAt    int64    `json:"iat,omitempty"`
}
