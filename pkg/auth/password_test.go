package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloria/admin-api/pkg/auth"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, hash, "correct horse")

	assert.True(t, auth.VerifyPassword("correct horse battery staple", hash))
	assert.False(t, auth.VerifyPassword("wrong password", hash))
	assert.False(t, auth.VerifyPassword("", hash))
}

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	t.Parallel()

	h1, err := auth.HashPassword("same password")
	require.NoError(t, err)
	h2, err := auth.HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, auth.VerifyPassword("same password", h1))
	assert.True(t, auth.VerifyPassword("same password", h2))
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	assert.False(t, auth.VerifyPassword("anything", ""))
	assert.False(t, auth.VerifyPassword("anything", "not base64 !!!"))
	assert.False(t, auth.VerifyPassword("anything", "dG9vc2hvcnQ"))
}

func TestGenerateSecureToken(t *testing.T) {
	t.Parallel()

	t1, err := auth.GenerateSecureToken(auth.ChallengeTokenBytes)
	require.NoError(t, err)
	t2, err := auth.GenerateSecureToken(auth.ChallengeTokenBytes)
	require.NoError(t, err)

	// 32 bytes base64-encoded is 44 characters.
	assert.Len(t, t1, 44)
	assert.NotEqual(t, t1, t2)
}
