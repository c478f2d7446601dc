package ownerstreamtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/owner"
)

// HMAC issues deterministic feed tokens bound to an owner address.
type HMAC struct {
	secretKey []byte
}

func NewHMAC(secretKey string) *HMAC {
	if secretKey == "" {
		panic("secret key must not be empty")
	}
	return &HMAC{
		secretKey: []byte(secretKey),
	}
}

func (h *HMAC) GenerateStreamToken(address c.Email) owner.StreamToken {
	return owner.StreamToken(base64.RawURLEncoding.EncodeToString(h.getMac(address)))
}

func (h *HMAC) ValidateStreamToken(address c.Email, token owner.StreamToken) bool {
	mac, err := base64.RawURLEncoding.DecodeString(string(token))
	if err != nil {
		return false
	}
	return hmac.Equal(mac, h.getMac(address))
}

func (h *HMAC) getMac(address c.Email) []byte {
	hasher := hmac.New(sha256.New, h.secretKey)
	io.WriteString(hasher, "stream:")
	io.WriteString(hasher, string(address))
	return hasher.Sum(nil)
}
