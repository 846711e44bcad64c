package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret"))
}

func TestHashPasswordClampsCost(t *testing.T) {
	hash, err := HashPassword("pw", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken("secret", "ana", "organiser", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.ID)
	assert.False(t, tok.Exp.IsZero())

	claims, err := ParseSessionToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, "organiser", claims.Role)
	assert.Equal(t, tok.ID, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
}

func TestSessionTokenWithoutExpiry(t *testing.T) {
	tok, err := NewSessionToken("secret", "ana", "organiser", 0)
	require.NoError(t, err)
	assert.True(t, tok.Exp.IsZero())

	claims, err := ParseSessionToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestParseSessionTokenRejects(t *testing.T) {
	good, err := NewSessionToken("secret", "ana", "organiser", time.Hour)
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		Username: "ana",
		Role:     "organiser",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredRaw, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{Role: "organiser"})
	anonymousRaw, err := anonymous.SignedString([]byte("secret"))
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{Username: "ana"})
	noneRaw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct{ secret, raw string }{
		"empty":        {"secret", ""},
		"garbage":      {"secret", "not.a.token"},
		"wrong secret": {"other", good.Token},
		"expired":      {"secret", expiredRaw},
		"no username":  {"secret", anonymousRaw},
		"alg none":     {"secret", noneRaw},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSessionToken(tc.secret, tc.raw)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}
