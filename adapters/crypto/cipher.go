// Package crypto provides the Cipher implementation used to encrypt
// provider credentials at rest.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/archonlabs/provgate/ports"
)

// KeySize is the secretbox key length in bytes.
const KeySize = 32

const nonceSize = 24

// ErrDecrypt is returned when a ciphertext cannot be opened, either
// because it is corrupt or was sealed under a different key.
var ErrDecrypt = errors.New("crypto: cannot decrypt credential")

// SecretBox encrypts credentials with NaCl secretbox (XSalsa20-Poly1305).
// Ciphertexts are nonce-prefixed, so each Encrypt output is
// self-contained and unique even for identical plaintexts.
type SecretBox struct {
	key [KeySize]byte
}

// NewSecretBox creates a cipher from a base64-encoded 32-byte key, as
// produced by GenerateKey.
func NewSecretBox(encodedKey string) (*SecretBox, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(raw))
	}

	var sb SecretBox
	copy(sb.key[:], raw)
	return &sb, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (s *SecretBox) Encrypt(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

// Decrypt opens a nonce-prefixed ciphertext produced by Encrypt.
func (s *SecretBox) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize+secretbox.Overhead {
		return nil, ErrDecrypt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// GenerateKey returns a fresh base64-encoded secretbox key.
func GenerateKey() (string, error) {
	raw := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

var _ ports.Cipher = (*SecretBox)(nil)
