package otp_test

import (
	"crypto/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/veloria/admin-api/pkg/otp"
)

var recoveryCodeFormat = regexp.MustCompile(`^[0-9A-F]{5}-[0-9A-F]{5}$`)

func TestGenerateRecoveryCodes(t *testing.T) {
	t.Parallel()

	codes, err := otp.GenerateRecoveryCodes(rand.Reader, otp.RecoveryCodeCount, bcrypt.MinCost)
	require.NoError(t, err)
	require.Len(t, codes, 8)

	seen := make(map[string]bool)
	for _, c := range codes {
		assert.Regexp(t, recoveryCodeFormat, c.Plaintext)
		assert.False(t, seen[c.Plaintext], "duplicate code %s", c.Plaintext)
		seen[c.Plaintext] = true

		// The hash covers the normalized form, not the grouped one.
		normalized := otp.NormalizeRecoveryCode(c.Plaintext)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(normalized)))
	}
}

func TestGenerateRecoveryCodesDefaultCount(t *testing.T) {
	t.Parallel()

	codes, err := otp.GenerateRecoveryCodes(rand.Reader, 0, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Len(t, codes, otp.RecoveryCodeCount)
}

func TestNormalizeRecoveryCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"AB12C-D34EF", "AB12CD34EF"},
		{"ab12cd34ef", "AB12CD34EF"},
		{"  AB12C-D34EF  ", "AB12CD34EF"},
		{"AB12C D34EF", "AB12CD34EF"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, otp.NormalizeRecoveryCode(tt.input))
	}
}

func TestMatchRecoveryCode(t *testing.T) {
	t.Parallel()

	codes, err := otp.GenerateRecoveryCodes(rand.Reader, 3, bcrypt.MinCost)
	require.NoError(t, err)

	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = c.Hash
	}

	idx, ok := otp.MatchRecoveryCode(hashes, codes[1].Plaintext)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	// Input survives sloppy transcription.
	idx, ok = otp.MatchRecoveryCode(hashes, " "+otp.NormalizeRecoveryCode(codes[2].Plaintext)+" ")
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = otp.MatchRecoveryCode(hashes, "00000-00000")
	assert.False(t, ok)

	_, ok = otp.MatchRecoveryCode(hashes, "")
	assert.False(t, ok)

	_, ok = otp.MatchRecoveryCode(nil, codes[0].Plaintext)
	assert.False(t, ok)
}
