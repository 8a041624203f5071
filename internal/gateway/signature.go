package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// AuthenticateWebhook checks the HMAC-SHA512 signature of a raw webhook body.
// The body must be the exact bytes received, before any parsing.
func AuthenticateWebhook(rawBody []byte, signatureHeader, secret string) bool {
	if secret == "" || signatureHeader == "" {
		return false
	}

	provided, err := hex.DecodeString(strings.TrimSpace(signatureHeader))
	if err != nil {
		return false
	}

	return hmac.Equal(Sign(rawBody, secret), provided)
}

// Sign computes the raw HMAC-SHA512 of body with secret
func Sign(body []byte, secret string) []byte {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignHex computes the hex encoded HMAC-SHA512 of body, as sent in the signature header
func SignHex(body []byte, secret string) string {
	return hex.EncodeToString(Sign(body, secret))
}
