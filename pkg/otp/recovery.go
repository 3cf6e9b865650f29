package otp

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// RecoveryCodeCount is the batch size issued per enrollment.
	RecoveryCodeCount = 8

	// recoveryCodeBytes gives 40 bits of entropy per code, rendered as
	// 10 hex characters grouped XXXXX-XXXXX for transcription.
	recoveryCodeBytes = 5
)

// DefaultRecoveryCost is the bcrypt cost used for stored code hashes.
var DefaultRecoveryCost = bcrypt.DefaultCost

// RecoveryCode pairs a plaintext backup code with its bcrypt hash. The
// plaintext exists only long enough to be shown to the operator once;
// only the hash is ever persisted.
type RecoveryCode struct {
	Plaintext string
	Hash      string
}

// GenerateRecoveryCodes draws count single-use backup codes from r
// (crypto/rand when nil) and hashes each with bcrypt at the given cost
// (DefaultRecoveryCost when 0).
func GenerateRecoveryCodes(r io.Reader, count, cost int) ([]RecoveryCode, error) {
	if r == nil {
		r = rand.Reader
	}
	if count <= 0 {
		count = RecoveryCodeCount
	}
	if cost <= 0 {
		cost = DefaultRecoveryCost
	}

	codes := make([]RecoveryCode, 0, count)
	for i := 0; i < count; i++ {
		buf := make([]byte, recoveryCodeBytes)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to generate recovery code: %w", err)
		}

		raw := strings.ToUpper(hex.EncodeToString(buf))
		hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash recovery code: %w", err)
		}

		codes = append(codes, RecoveryCode{
			Plaintext: raw[:5] + "-" + raw[5:],
			Hash:      string(hash),
		})
	}
	return codes, nil
}

// NormalizeRecoveryCode strips the display grouping so user input
// matches the hashed form: trimmed, uppercased, separators removed.
func NormalizeRecoveryCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// MatchRecoveryCode tests candidate against each active hash using
// bcrypt's constant-time verify and returns the index of the first
// match. Removal of the matched hash is the caller's job and must be a
// conditional update so racing consumers cannot both win.
func MatchRecoveryCode(hashes []string, candidate string) (int, bool) {
	normalized := NormalizeRecoveryCode(candidate)
	if normalized == "" {
		return 0, false
	}

	for i, h := range hashes {
		if bcrypt.CompareHashAndPassword([]byte(h), []byte(normalized)) == nil {
			return i, true
		}
	}
	return 0, false
}
