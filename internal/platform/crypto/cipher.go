package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// sealedPrefix marks values written by Seal so rows stored before a key was
// configured can still be read back as plain text.
const sealedPrefix byte = 0x01

var ErrKeyRequired = errors.New("value is encrypted but no DATA_ENCRYPTION_KEY is configured")

// Cipher encrypts free-text review narratives at rest with AES-256-GCM.
// A zero-key Cipher stores values as plain bytes.
type Cipher struct {
	aead cipher.AEAD
}

func New(key string) (*Cipher, error) {
	if key == "" {
		return &Cipher{}, nil
	}
	decoded, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	if len(decoded) != 32 {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must be 32 bytes after decoding")
	}
	block, err := aes.NewCipher(decoded)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

func (c *Cipher) Enabled() bool {
	return c != nil && c.aead != nil
}

func (c *Cipher) SealString(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	if !c.Enabled() {
		return []byte(value), nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(nonce)+len(value)+c.aead.Overhead())
	out = append(out, sealedPrefix)
	out = append(out, nonce...)
	return c.aead.Seal(out, nonce, []byte(value), nil), nil
}

func (c *Cipher) OpenString(stored []byte) (string, error) {
	if len(stored) == 0 {
		return "", nil
	}
	if stored[0] != sealedPrefix {
		return string(stored), nil
	}
	if !c.Enabled() {
		return "", ErrKeyRequired
	}
	body := stored[1:]
	if len(body) < c.aead.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, data := body[:c.aead.NonceSize()], body[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func decodeKey(raw string) ([]byte, error) {
	if len(raw) == 64 {
		decoded, err := hex.DecodeString(raw)
		if err == nil {
			return decoded, nil
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil && len(decoded) == 32 {
		return decoded, nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil && len(decoded) == 32 {
		return decoded, nil
	}
	return []byte(raw), nil
}
