package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour, 42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour, 42, "alice")
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	require.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	token, err := GenerateToken("secret", -time.Minute, 42, "alice")
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	require.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	_, err := ParseToken("secret", "not-a-token")
	require.Error(t, err)
}
