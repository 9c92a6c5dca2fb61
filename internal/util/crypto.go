package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

func HmacSHA256(secret, data string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// MaskPhone hides the middle of a phone-number-like identifier for logs.
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return "******"
	}
	return phone[:3] + "****" + phone[len(phone)-3:]
}
