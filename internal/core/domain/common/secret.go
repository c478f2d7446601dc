package common

import "encoding/hex"

// Secret is key material. It is never logged and renders as a placeholder.
type Secret []byte

func (s Secret) String() string {
	return "[secret]"
}

func (s Secret) Hex() string {
	return hex.EncodeToString(s)
}

func ParseHexSecret(value string) (Secret, error) {
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, err
	}
	return Secret(b), nil
}
