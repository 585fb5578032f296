package domain

import "time"

// PasswordHistoryDepth is how many previous password hashes are retained
// and checked when a user picks a new password.
const PasswordHistoryDepth = 3

// PasswordHistoryEntry records a hash the user had before a password change.
// The entry is appended before the new hash is written, so the history always
// trails the current credential.
type PasswordHistoryEntry struct {
	ID        string
	UserID    string
	Hash      string
	ChangedAt time.Time
}

// PasswordResetToken is a single-use recovery code bound to an email address.
// It moves through created -> verified -> used; a consumed or expired token
// can never authorize a reset again.
type PasswordResetToken struct {
	ID        string
	Email     string
	Code      string // 6 decimal digits
	ExpiresAt time.Time
	Verified  bool
	Used      bool
	CreatedAt time.Time
}

// Expired reports whether the code is past its validity window.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
