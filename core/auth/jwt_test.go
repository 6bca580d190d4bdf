package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken("user-1", "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseTokenRejectsBadTokens(t *testing.T) {
	SetSecret("test-secret")

	_, err := GenerateToken("", "", time.Hour)
	assert.Error(t, err)

	old := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	oldStr, err := old.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ParseToken(oldStr)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err := GenerateToken("user-1", "", time.Hour)
	require.NoError(t, err)
	SetSecret("other-secret")
	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenFallsBackToSubject(t *testing.T) {
	SetSecret("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-2",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	str, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	claims, err := ParseToken(str)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.UserID)
}
