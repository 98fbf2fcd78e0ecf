package relay

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken_RoundTrip(t *testing.T) {
	secret := []byte("s3cret")

	token, err := IssueToken(secret, "pixel-7", time.Hour)
	require.NoError(t, err)

	device, err := parseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "pixel-7", device)
}

func TestParseToken_Rejects(t *testing.T) {
	secret := []byte("s3cret")

	wrongAudience, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "pixel-7",
		Audience:  jwt.ClaimStrings{"someone-else"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "pixel-7",
		Audience: jwt.ClaimStrings{audience},
	}).SignedString(secret)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"Wrong Audience": wrongAudience,
		"No Expiry":      noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseToken(secret, token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
