package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("secret", "school-platform", time.Hour)

	signed, expiresAt, err := m.Generate("user-1", "jordan@example.com", []string{"ROLE_STUDENT", "ROLE_ADMIN"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "jordan@example.com", claims.Email)
	assert.Equal(t, "school-platform", claims.Issuer)
	assert.True(t, claims.HasRole("ROLE_ADMIN"))
	assert.False(t, claims.HasRole("ROLE_TEACHER"))
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := NewManager("secret", "school-platform", time.Hour)
	other := NewManager("different", "school-platform", time.Hour)

	signed, _, err := m.Generate("user-1", "jordan@example.com", nil)
	require.NoError(t, err)

	_, err = other.Parse(signed)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewManager("secret", "school-platform", time.Hour)
	m.expiry = -time.Minute

	signed, _, err := m.Generate("user-1", "jordan@example.com", nil)
	require.NoError(t, err)

	_, err = m.Parse(signed)
	require.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	m := NewManager("secret", "school-platform", time.Hour)
	_, err := m.Parse("not-a-token")
	require.Error(t, err)
}
