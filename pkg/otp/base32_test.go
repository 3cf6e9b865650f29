package otp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloria/admin-api/pkg/otp"
)

func TestBase32RoundTrip(t *testing.T) {
	t.Parallel()

	// Every length from 0 to 32 bytes, with varying content, so all
	// partial-block encodings are exercised.
	for n := 0; n <= 32; n++ {
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = byte(i*7 + n*13)
		}

		encoded := otp.EncodeBase32(buf)
		decoded, err := otp.DecodeBase32(encoded)
		require.NoError(t, err)
		assert.Equal(t, buf, decoded)
	}
}

func TestEncodeBase32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", otp.EncodeBase32(nil))
	assert.Equal(t, "MZXW6", otp.EncodeBase32([]byte("foo")))
	assert.Equal(t, "MZXW6YTBOI", otp.EncodeBase32([]byte("foobar")))

	// Output stays inside the 32-symbol alphabet, no padding.
	encoded := otp.EncodeBase32([]byte{0x00, 0x44, 0x32, 0x14, 0xc7, 0x42, 0x54, 0xb6, 0x35, 0xcf})
	for _, r := range encoded {
		assert.True(t, (r >= 'A' && r <= 'Z') || (r >= '2' && r <= '7'), "unexpected symbol %q", r)
	}
}

func TestDecodeBase32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "empty", input: "", want: []byte{}},
		{name: "canonical", input: "MZXW6YTBOI", want: []byte("foobar")},
		{name: "lowercase", input: "mzxw6ytboi", want: []byte("foobar")},
		{name: "whitespace stripped", input: " MZXW 6YTB OI\n", want: []byte("foobar")},
		{name: "hyphens stripped", input: "MZXW-6YTB-OI", want: []byte("foobar")},
		{name: "trailing padding stripped", input: "MZXW6===", want: []byte("foo")},
		{name: "digit zero rejected", input: "MZXW0YTBOI", wantErr: true},
		{name: "digit one rejected", input: "1AAAAAAA", wantErr: true},
		{name: "digit eight rejected", input: "MZXW8YTBOI", wantErr: true},
		{name: "digit nine rejected", input: "MZXW9YTBOI", wantErr: true},
		{name: "punctuation rejected", input: "MZXW!YTBOI", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := otp.DecodeBase32(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
