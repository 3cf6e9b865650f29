package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters - following OWASP recommendations
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// HashPassword hashes a password using Argon2id
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// Encode salt and hash together
	combined := make([]byte, saltLen+argon2KeyLen)
	copy(combined[:saltLen], salt)
	copy(combined[saltLen:], hash)

	return base64.RawStdEncoding.EncodeToString(combined), nil
}

// VerifyPassword checks if the provided password matches the hash
func VerifyPassword(password, encodedHash string) bool {
	combined, err := base64.RawStdEncoding.DecodeString(encodedHash)
	if err != nil || len(combined) != saltLen+argon2KeyLen {
		return false
	}

	salt := combined[:saltLen]
	storedHash := combined[saltLen:]

	computedHash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return subtle.ConstantTimeCompare(storedHash, computedHash) == 1
}
