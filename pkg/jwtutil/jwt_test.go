package jwtutil

import (
	"testing"

	"notifyhub/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestConfig(t *testing.T, signingKey string) {
	t.Helper()
	prev := cfg
	Initialize(&config.JWTConfig{
		SigningKey:        signingKey,
		ExpirationHours:   24,
		ReportedExpiresIn: 7200,
	})
	t.Cleanup(func() { cfg = prev })
}

func TestGenerateAndValidateToken(t *testing.T) {
	initTestConfig(t, "test-signing-key")

	token, err := GenerateAdminToken("admin-1", "admin@notifyhub.io", "PLATFORM_ADMIN")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.Subject)
	assert.Equal(t, "admin@notifyhub.io", claims.Email)
	assert.Equal(t, "PLATFORM_ADMIN", claims.Role)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestValidateTokenRejectsTamperedToken(t *testing.T) {
	initTestConfig(t, "test-signing-key")

	token, err := GenerateAdminToken("admin-1", "admin@notifyhub.io", "PLATFORM_ADMIN")
	require.NoError(t, err)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	initTestConfig(t, "test-signing-key")
	token, err := GenerateAdminToken("admin-1", "admin@notifyhub.io", "PLATFORM_ADMIN")
	require.NoError(t, err)

	initTestConfig(t, "another-key")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}
