package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, sub string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidToken(t *testing.T) {
	a := New(testSecret)

	header := "Bearer " + signToken(t, testSecret, "user-42", time.Hour)
	userID, err := a.UserID(header)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestMissingHeader(t *testing.T) {
	a := New(testSecret)

	_, err := a.UserID("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = a.UserID("Basic dXNlcjpwYXNz")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestInvalidTokens(t *testing.T) {
	a := New(testSecret)

	tests := []struct {
		name   string
		header string
	}{
		{"garbage", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", "user-42", time.Hour)},
		{"expired", "Bearer " + signToken(t, testSecret, "user-42", -time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.UserID(tt.header)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenWithoutSubject(t *testing.T) {
	a := New(testSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = a.UserID("Bearer " + signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
