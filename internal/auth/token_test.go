package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":     exp.Unix(),
		"user_id": 1,
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestExpiry(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	got, ok := Expiry(signed(t, exp))
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = Expiry("not-a-jwt")
	assert.False(t, ok)
}

func TestExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, Expired(signed(t, now.Add(-time.Minute)), now))
	assert.False(t, Expired(signed(t, now.Add(time.Minute)), now))
	assert.False(t, Expired("opaque", now))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abcdef…uvwxyz", Preview("Bearer abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "short", Preview("short"))
}
