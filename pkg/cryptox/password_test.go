package cryptox

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Tests share a throwaway pepper file.
	SetPepperPath("test-pepper")
	m.Run()
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t, VerifyPassword("wrong password", hash), ErrMismatch)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	h1, err := HashPassword("same input")
	require.NoError(t, err)
	h2, err := HashPassword("same input")
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)

	require.NoError(t, VerifyPassword("same input", h1))
	require.NoError(t, VerifyPassword("same input", h2))
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, bad := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$not-base64!$aGFzaA",
	} {
		err := VerifyPassword("anything", bad)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrMismatch)
	}
}

func TestGenerateOTPShape(t *testing.T) {
	seen := make(map[string]struct{})
	for range 200 {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, OTPDigits)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
		seen[code] = struct{}{}
	}
	// 200 draws from 900k values should essentially never all collide.
	require.Greater(t, len(seen), 150)
}
