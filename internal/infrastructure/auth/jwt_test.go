package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func TestValidateToken_Valid(t *testing.T) {
	v := NewJWTValidator(testSecret)
	sub := uuid.NewString()
	token, err := SignToken(testSecret, sub, time.Hour)
	require.NoError(t, err)

	for _, raw := range []string{token, "Bearer " + token, "bearer " + token} {
		claims, err := v.ValidateToken(raw)
		require.NoError(t, err)
		assert.Equal(t, sub, claims.UserID())
		assert.True(t, claims.IsAuthenticated())
	}
}

func TestValidateToken_Failures(t *testing.T) {
	v := NewJWTValidator(testSecret)
	sub := uuid.NewString()

	expired, err := SignToken(testSecret, sub, -time.Minute)
	require.NoError(t, err)
	wrongKey, err := SignToken("another-secret-another-secret-1234", sub, time.Hour)
	require.NoError(t, err)
	notUUID, err := SignToken(testSecret, "user-42", time.Hour)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	anon, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "anon",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"bearer_only", "Bearer ", ErrMissingToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"expired", expired, ErrTokenExpired},
		{"wrong_key", wrongKey, ErrInvalidSignature},
		{"subject_not_uuid", notUUID, ErrInvalidClaims},
		{"missing_exp", noExp, ErrInvalidClaims},
		{"anonymous", anon, ErrInvalidClaims},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "", ExtractBearerToken(""))
	assert.Equal(t, "abc", ExtractBearerToken("Bearer abc"))
	assert.Equal(t, "abc", ExtractBearerToken("BEARER  abc "))
	assert.Equal(t, "abc", ExtractBearerToken("abc"))
}
