package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// ChallengeTokenBytes sizes login challenge tokens at 256 bits of
// randomness, well past guessability over a 5-minute TTL.
const ChallengeTokenBytes = 32

// GenerateSecureToken creates a cryptographically secure random token
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
