package usecase

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignatureHMACSHA256(t *testing.T) {
	payload := []byte(`{"reference":"r-1","amount":"10"}`)
	valid := sign(payload)

	assert.True(t, verifySignature(SignatureHMACSHA256, testProviderSecret, payload, valid))
	assert.False(t, verifySignature(SignatureHMACSHA256, testProviderSecret, payload, "deadbeef"))
	assert.False(t, verifySignature(SignatureHMACSHA256, "other-secret", payload, valid))
	assert.False(t, verifySignature(SignatureHMACSHA256, testProviderSecret, []byte(`tampered`), valid))
}

func TestVerifySignatureAcceptsUppercaseHex(t *testing.T) {
	payload := []byte(`{"reference":"r-1"}`)

	mac := hmac.New(sha512.New, []byte(testProviderSecret))
	mac.Write(payload)
	upper := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))

	assert.True(t, verifySignature(SignatureHMACSHA512, testProviderSecret, payload, upper))
}

func TestVerifySignatureStatic(t *testing.T) {
	payload := []byte(`anything`)

	assert.True(t, verifySignature(SignatureStatic, "shared-token", payload, "shared-token"))
	assert.False(t, verifySignature(SignatureStatic, "shared-token", payload, "wrong-token"))
}

func TestVerifySignatureRejectsDegenerateInput(t *testing.T) {
	payload := []byte(`{}`)

	assert.False(t, verifySignature(SignatureHMACSHA256, "", payload, sign(payload)))
	assert.False(t, verifySignature(SignatureHMACSHA256, testProviderSecret, payload, ""))
	assert.False(t, verifySignature("md5", testProviderSecret, payload, sign(payload)))
}
