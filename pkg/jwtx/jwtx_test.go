package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *KeyManager {
	t.Helper()
	km, err := NewEphemeralKeyManager(KeyManagerOptions{Issuer: "test-issuer", NumKeys: 1})
	require.NoError(t, err)
	return km
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	km := newTestManager(t)
	claims := NewAccessClaims(
		"alice@example.com",
		[]string{"VIEW_VEHICLE", "ROLE_CUSTOMER"},
		"CUSTOMER",
		"Alice",
		time.Minute,
		"test-issuer",
		time.Now(),
	)

	token, err := km.GetSigner().Sign(claims)
	require.NoError(t, err)

	got, err := km.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got.Subject)
	require.Equal(t, "CUSTOMER", got.Role)
	require.Equal(t, []string{"VIEW_VEHICLE", "ROLE_CUSTOMER"}, got.Authorities)
	require.True(t, got.HasAuthority("ROLE_CUSTOMER"))
	require.False(t, got.HasAuthority("ROLE_ADMIN"))
	require.NotEmpty(t, got.ID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	km := newTestManager(t)
	claims := NewAccessClaims(
		"bob@example.com", nil, "STAFF", "Bob",
		time.Minute, "test-issuer", time.Now().Add(-2*time.Minute),
	)

	token, err := km.GetSigner().Sign(claims)
	require.NoError(t, err)

	_, err = km.Verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	km := newTestManager(t)
	claims := NewAccessClaims(
		"bob@example.com", nil, "STAFF", "Bob",
		time.Minute, "test-issuer", time.Now(),
	)

	token, err := km.GetSigner().Sign(claims)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[1] = parts[1][:len(parts[1])-2] + "xx"

	_, err = km.Verifier.Verify(strings.Join(parts, "."))
	require.Error(t, err)
}

func TestVerifyRejectsForeignIssuerAndKey(t *testing.T) {
	t.Parallel()

	km := newTestManager(t)
	other, err := NewEphemeralKeyManager(KeyManagerOptions{Issuer: "test-issuer", NumKeys: 1})
	require.NoError(t, err)

	claims := NewAccessClaims(
		"eve@example.com", nil, "CUSTOMER", "Eve",
		time.Minute, "test-issuer", time.Now(),
	)

	// Signed with a key the verifier has never seen.
	token, err := other.GetSigner().Sign(claims)
	require.NoError(t, err)
	_, err = km.Verifier.Verify(token)
	require.Error(t, err)

	// Wrong issuer claim.
	bad := NewAccessClaims(
		"eve@example.com", nil, "CUSTOMER", "Eve",
		time.Minute, "someone-else", time.Now(),
	)
	token, err = km.GetSigner().Sign(bad)
	require.NoError(t, err)
	_, err = km.Verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	km := newTestManager(t)
	for _, s := range []string{"", "garbage", "a.b.c"} {
		_, err := km.Verifier.Verify(s)
		require.Error(t, err)
	}
}
