package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader is the request header carrying the hex-encoded HMAC-SHA256
// signature of the raw webhook body.
const SignatureHeader = "linear-signature"

// VerifySignature reports whether signatureHeader is the hex HMAC-SHA256 of
// body under secret. Any missing or malformed input yields false; callers
// treat false uniformly as an authentication failure. The comparison is
// constant-time.
func VerifySignature(body []byte, signatureHeader string, secret []byte) bool {
	provided, err := hex.DecodeString(strings.TrimSpace(signatureHeader))
	if err != nil || len(provided) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

// Sign returns the hex HMAC-SHA256 of body under secret.
// Used by tests and local tooling to fabricate webhook deliveries.
func Sign(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
