package devserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)

	token, err := issuer.Issue("kim@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := issuer.Subject(token)
	require.NoError(t, err)
	require.Equal(t, "kim@example.com", subject)
}

func TestTokenIssuerRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute)

	token, err := issuer.Issue("kim@example.com")
	require.NoError(t, err)

	_, err = issuer.Subject(token)
	require.Error(t, err)
}

func TestTokenIssuerRejectsForeignSignature(t *testing.T) {
	token, err := NewTokenIssuer("one-secret", time.Minute).Issue("kim@example.com")
	require.NoError(t, err)

	_, err = NewTokenIssuer("another-secret", time.Minute).Subject(token)
	require.Error(t, err)
}

func TestTokenIssuerRejectsGarbage(t *testing.T) {
	_, err := NewTokenIssuer("secret", time.Minute).Subject("not.a.token")
	require.Error(t, err)
}

func TestPasswordHashingRoundTrip(t *testing.T) {
	hashed, err := hashPassword("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hashed)

	require.True(t, verifyPassword(hashed, "hunter2"))
	require.False(t, verifyPassword(hashed, "hunter3"))
}
