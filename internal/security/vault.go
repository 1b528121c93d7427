package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyVault encrypts merchant private keys at rest. The persisted entity only
// ever carries the opaque sealed blob; decryption yields a transient value
// scoped to a single gateway-client construction.
type KeyVault struct {
	key []byte
}

// NewKeyVault requires a 32-byte key.
func NewKeyVault(key []byte) (*KeyVault, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("vault key must be %d bytes", chacha20poly1305.KeySize)
	}
	return &KeyVault{key: key}, nil
}

// Seal encrypts plaintext and returns a base64 blob (nonce || ciphertext).
func (v *KeyVault) Seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a blob produced by Seal.
func (v *KeyVault) Open(blob string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("malformed sealed blob: %w", err)
	}
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", err
	}
	if len(sealed) < aead.NonceSize() {
		return "", fmt.Errorf("sealed blob too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}
