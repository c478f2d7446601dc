package actiontoken

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"snoozer/internal/core/domain/action"
	c "snoozer/internal/core/domain/common"

	"golang.org/x/crypto/hkdf"
)

const (
	SECRET_LEN = 32
	macLen     = sha256.Size
)

var (
	ErrInvalidSecret = errors.New("action token secret must be 32 bytes")
	separator        = []byte("::")
	keyInfo          = []byte("snoozer action token v1")
)

// AES encrypts payloads with AES-256-CBC under a random IV and authenticates
// IV and ciphertext with HMAC-SHA256. Both keys are derived from the record
// secret. Token layout: base64url(ciphertext | mac | "::" | hex(iv)).
type AES struct {
	random io.Reader
}

func NewAES() *AES {
	return &AES{random: rand.Reader}
}

func (a *AES) Encode(plaintext []byte, secret c.Secret) (action.Token, error) {
	if len(secret) != SECRET_LEN {
		return "", ErrInvalidSecret
	}
	encKey, macKey, err := deriveKeys(secret)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(a.random, iv); err != nil {
		return "", fmt.Errorf("could not read IV: %w", err)
	}

	padded := pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	hexIV := []byte(hex.EncodeToString(iv))
	raw := make([]byte, 0, len(ciphertext)+macLen+len(separator)+len(hexIV))
	raw = append(raw, ciphertext...)
	raw = append(raw, sign(macKey, iv, ciphertext)...)
	raw = append(raw, separator...)
	raw = append(raw, hexIV...)
	return action.Token(base64.RawURLEncoding.EncodeToString(raw)), nil
}

func (a *AES) Decode(token action.Token, secret c.Secret) ([]byte, error) {
	if len(secret) != SECRET_LEN {
		return nil, action.ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(string(token))
	if err != nil {
		return nil, action.ErrInvalidToken
	}

	// Hex never contains the separator, so the last one is authoritative.
	ix := bytes.LastIndex(raw, separator)
	if ix < 0 {
		return nil, action.ErrInvalidToken
	}
	body, hexIV := raw[:ix], raw[ix+len(separator):]
	iv, err := hex.DecodeString(string(hexIV))
	if err != nil || len(iv) != aes.BlockSize {
		return nil, action.ErrInvalidToken
	}
	if len(body) < aes.BlockSize+macLen || (len(body)-macLen)%aes.BlockSize != 0 {
		return nil, action.ErrInvalidToken
	}
	ciphertext, mac := body[:len(body)-macLen], body[len(body)-macLen:]

	encKey, macKey, err := deriveKeys(secret)
	if err != nil {
		return nil, action.ErrInvalidToken
	}
	if !hmac.Equal(mac, sign(macKey, iv, ciphertext)) {
		return nil, action.ErrInvalidToken
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, action.ErrInvalidToken
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
	plaintext, ok := unpad(padded)
	if !ok {
		return nil, action.ErrInvalidToken
	}
	return plaintext, nil
}

func deriveKeys(secret c.Secret) (encKey []byte, macKey []byte, err error) {
	keys := make([]byte, 64)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, keyInfo), keys); err != nil {
		return nil, nil, err
	}
	return keys[:32], keys[32:], nil
}

func sign(key []byte, iv []byte, ciphertext []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(iv)
	h.Write(ciphertext)
	return h.Sum(nil)
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	padded := make([]byte, len(b), len(b)+n)
	copy(padded, b)
	return append(padded, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, bool) {
	if len(b) == 0 || len(b)%aes.BlockSize != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize {
		return nil, false
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
