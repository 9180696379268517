package pkg

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// NewNonce returns the current wall clock in milliseconds since epoch as a
// decimal string. The gateway only needs nonces to be distinguishing within
// its replay window, not cryptographically random.
func NewNonce() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// Sign computes the lowercase hex HMAC-SHA256 of "{nonce}.{body}" under
// secret. The body bytes must be exactly the bytes that go on the wire.
func Sign(secret, nonce string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(nonce))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches Sign(secret, nonce,
// payload). Comparison is constant time.
func VerifySignature(secret, nonce string, payload []byte, signature string) bool {
	expected := Sign(secret, nonce, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
