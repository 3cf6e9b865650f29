package otp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// Digits is the code length produced and accepted by the engine.
	Digits = 6
	// Period is the TOTP time step in seconds (RFC 6238 standard).
	Period = 30
	// DefaultDriftSteps tolerates one step of clock skew in each
	// direction, i.e. three 30-second windows.
	DefaultDriftSteps = 1

	// SecretLength is the raw secret size in bytes. 160 bits per the
	// RFC 4226 recommendation, 32 base32 characters once encoded.
	SecretLength = 20
)

var ErrEmptySecret = errors.New("empty totp secret")

// Engine validates time-based one-time passwords (RFC 6238, HMAC-SHA1
// variant). The clock is injectable so expiry and skew behavior can be
// tested without sleeping.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an engine backed by the system clock.
func NewEngine() *Engine {
	return NewEngineWithClock(time.Now)
}

// NewEngineWithClock returns an engine using the given now provider.
func NewEngineWithClock(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// IsValid reports whether candidate matches the code for any time step
// within driftSteps of the current one. It is side-effect-free: replay
// protection is the caller's responsibility. An empty or unparseable
// secret and a blank candidate are both rejected.
func (e *Engine) IsValid(secretBase32, candidate string, driftSteps int) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}

	key, err := DecodeBase32(secretBase32)
	if err != nil || len(key) == 0 {
		return false
	}

	step := e.now().Unix() / Period
	for offset := -driftSteps; offset <= driftSteps; offset++ {
		if hotp(key, step+int64(offset)) == candidate {
			return true
		}
	}
	return false
}

// CodeAt computes the code for the time step containing t. Used when
// provisioning a new secret and by tests that need reference codes.
func (e *Engine) CodeAt(secretBase32 string, t time.Time) (string, error) {
	key, err := DecodeBase32(secretBase32)
	if err != nil {
		return "", err
	}
	if len(key) == 0 {
		return "", ErrEmptySecret
	}
	return hotp(key, t.Unix()/Period), nil
}

// hotp implements RFC 4226: HMAC-SHA1 over the big-endian counter,
// dynamic truncation, modulo 10^6, left-padded with zeros.
func hotp(key []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	truncated := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", Digits, truncated%1000000)
}

// GenerateSecret draws a fresh 20-byte secret from r and returns it
// base32-encoded. Pass nil to use crypto/rand.
func GenerateSecret(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, SecretLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return EncodeBase32(buf), nil
}
