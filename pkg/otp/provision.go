package otp

import (
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

// ProvisioningURI builds the otpauth:// URI that authenticator apps
// scan during enrollment, per the Google Authenticator key URI format.
func ProvisioningURI(secret, accountName, issuer string) string {
	label := fmt.Sprintf("%s:%s", url.PathEscape(issuer), url.PathEscape(accountName))

	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	query.Set("algorithm", "SHA1")
	query.Set("digits", fmt.Sprintf("%d", Digits))
	query.Set("period", fmt.Sprintf("%d", Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode())
}

// QRCodePNG renders a provisioning URI as a PNG of the given pixel
// size, for clients that display the secret as a scannable code.
func QRCodePNG(uri string, size int) ([]byte, error) {
	png, err := qrcode.Encode(uri, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return png, nil
}
