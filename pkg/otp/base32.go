package otp

import (
	"encoding/base32"
	"fmt"
	"strings"
)

// Authenticator apps expect unpadded RFC 4648 secrets (A-Z, 2-7).
var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// EncodeBase32 encodes raw secret bytes into the unpadded RFC 4648
// base32 alphabet used by authenticator apps.
func EncodeBase32(src []byte) string {
	return b32.EncodeToString(src)
}

// DecodeBase32 decodes a base32 secret. Input is case-insensitive and
// may contain whitespace, hyphens, or trailing padding from copy/paste;
// those are stripped. Any other character outside the alphabet (0, 1,
// 8, 9, punctuation) is an error.
func DecodeBase32(s string) ([]byte, error) {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '=':
			continue
		default:
			sb.WriteRune(r)
		}
	}

	cleaned := strings.ToUpper(sb.String())
	if cleaned == "" {
		return []byte{}, nil
	}

	raw, err := b32.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid base32 secret: %w", err)
	}
	return raw, nil
}
