package usecase

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// Signature schemes spoken by the settlement providers, selected per provider
// in configuration.
const (
	SignatureHMACSHA256 = "hmac-sha256"
	SignatureHMACSHA512 = "hmac-sha512"
	SignatureStatic     = "static"
)

// verifySignature checks the provider signature over the raw payload bytes.
// HMAC signatures are hex-encoded; the static scheme is a shared-token compare
// for providers that cannot sign.
func verifySignature(algorithm, secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	switch algorithm {
	case SignatureHMACSHA256:
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(payload)
		expected := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
	case SignatureHMACSHA512:
		mac := hmac.New(sha512.New, []byte(secret))
		mac.Write(payload)
		expected := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
	case SignatureStatic:
		return hmac.Equal([]byte(secret), []byte(signature))
	default:
		return false
	}
}
