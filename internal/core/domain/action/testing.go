package action

import (
	"encoding/base64"
	c "snoozer/internal/core/domain/common"
	"strings"
)

// FakeTokenCodec produces readable tokens bound to the secret's hex form.
type FakeTokenCodec struct{}

func (FakeTokenCodec) Encode(plaintext []byte, secret c.Secret) (Token, error) {
	return Token(secret.Hex() + "." + base64.RawURLEncoding.EncodeToString(plaintext)), nil
}

func (FakeTokenCodec) Decode(token Token, secret c.Secret) ([]byte, error) {
	parts := strings.SplitN(string(token), ".", 2)
	if len(parts) != 2 || parts[0] != secret.Hex() {
		return nil, ErrInvalidToken
	}
	plaintext, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	return plaintext, nil
}
