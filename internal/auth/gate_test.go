package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGateKeeperPlainPassword(t *testing.T) {
	g, err := NewGateKeeper("open-sesame", "signing-secret")
	require.NoError(t, err)

	require.True(t, g.VerifyPassword("open-sesame"))
	require.False(t, g.VerifyPassword("wrong"))
}

func TestGateKeeperBcryptPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	g, err := NewGateKeeper(string(hash), "signing-secret")
	require.NoError(t, err)

	require.True(t, g.VerifyPassword("open-sesame"))
	require.False(t, g.VerifyPassword("wrong"))
}

func TestGateKeeperTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g, err := NewGateKeeper("open-sesame", "signing-secret", WithGateNow(func() time.Time { return now }))
	require.NoError(t, err)

	token := g.IssueToken()
	require.True(t, g.CheckToken(token))
	require.False(t, g.CheckToken(token+"tampered"))
	require.False(t, g.CheckToken("1700000000.deadbeef"))
}

func TestGateKeeperTokenExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := now
	g, err := NewGateKeeper("open-sesame", "signing-secret",
		WithGateTTL(time.Hour),
		WithGateNow(func() time.Time { return current }))
	require.NoError(t, err)

	token := g.IssueToken()
	require.True(t, g.CheckToken(token))

	current = now.Add(2 * time.Hour)
	require.False(t, g.CheckToken(token))
}

func TestGateKeeperTokensDifferAcrossSecrets(t *testing.T) {
	a, err := NewGateKeeper("pw", "secret-a")
	require.NoError(t, err)
	b, err := NewGateKeeper("pw", "secret-b")
	require.NoError(t, err)

	require.False(t, b.CheckToken(a.IssueToken()))
}

func TestNewGateKeeperRequiresPassword(t *testing.T) {
	_, err := NewGateKeeper(" ", "secret")
	require.Error(t, err)
}
