package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tourvia/config"
)

func TestTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateToken("user-1", "customer", time.Hour)
	require.NoError(t, err)

	userID, role, err := ExtractIdentityFromToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
	require.Equal(t, "customer", role)
}

func TestExpiredTokenRejected(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateToken("user-1", "customer", -time.Minute)
	require.NoError(t, err)

	_, _, err = ExtractIdentityFromToken(token)
	require.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateToken("user-1", "customer", time.Hour)
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "a-different-secret"
	_, _, err = ExtractIdentityFromToken(token)
	require.Error(t, err)
}
