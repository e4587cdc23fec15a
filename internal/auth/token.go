package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expiry reads the exp claim of a JWT without verifying its signature.
// The backend is the only party that validates tokens; this is used for
// status reporting.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether token carries an exp claim in the past.
// Tokens without a readable exp are treated as not expired.
func Expired(token string, now time.Time) bool {
	exp, ok := Expiry(token)
	return ok && !now.Before(exp)
}

// Preview shortens a token for logs.
func Preview(token string) string {
	bare := strings.TrimSpace(token)
	if len(bare) >= 7 && strings.EqualFold(bare[:7], "Bearer ") {
		bare = strings.TrimSpace(bare[7:])
	}
	if len(bare) > 12 {
		return bare[:6] + "…" + bare[len(bare)-6:]
	}
	return bare
}
