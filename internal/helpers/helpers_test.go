package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2030-06-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("10/06/2030")
	require.Error(t, err)

	_, err = ParseDate("")
	require.Error(t, err)
}

func TestIsPasswordStrong(t *testing.T) {
	assert.True(t, IsPasswordStrong("Str0ng!Pass"))
	assert.False(t, IsPasswordStrong("short1!"))
	assert.False(t, IsPasswordStrong("alllowercase1!"))
	assert.False(t, IsPasswordStrong("NoDigitsHere!"))
	assert.False(t, IsPasswordStrong("NoSpecial123"))
}

func TestTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"

	token, err := SignToken(secret, "user-1", "ama@example.com", "ama", "customer", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ama@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
	assert.False(t, claims.IsAdmin())

	_, err = ValidateToken("wrong-secret", token)
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	const secret = "test-secret"

	token, err := SignToken(secret, "user-1", "ama@example.com", "ama", "customer", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(secret, token)
	require.Error(t, err)
}
