package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const blobVersion = "v1"

type sealedBlob struct {
	Version    string `json:"version"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// SealBlob encrypts plain bytes with AES-256-GCM under the given 32-byte key.
func SealBlob(plain, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := sealedBlob{
		Version:    blobVersion,
		Nonce:      base64.RawStdEncoding.EncodeToString(nonce),
		Ciphertext: base64.RawStdEncoding.EncodeToString(gcm.Seal(nil, nonce, plain, nil)),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// OpenBlob decrypts a sealed blob. Anything that is not a sealed blob is
// returned unchanged, so plain JSON config files keep working.
func OpenBlob(data, key []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty secret blob")
	}
	if !IsSealed(data) {
		return data, nil
	}
	var wrapped sealedBlob
	_ = json.Unmarshal(data, &wrapped)
	if wrapped.Version != blobVersion {
		return nil, fmt.Errorf("unsupported blob version: %s", wrapped.Version)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("secret is sealed but no key is configured (set LEXTEAMS_SECRET_KEY)")
	}
	nonce, err := base64.RawStdEncoding.DecodeString(strings.TrimSpace(wrapped.Nonce))
	if err != nil {
		return nil, err
	}
	ciphertext, err := base64.RawStdEncoding.DecodeString(strings.TrimSpace(wrapped.Ciphertext))
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// IsSealed reports whether data looks like a sealed blob.
func IsSealed(data []byte) bool {
	var wrapped sealedBlob
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return false
	}
	return wrapped.Version != "" && wrapped.Nonce != "" && wrapped.Ciphertext != ""
}

// DecodeKey base64-decodes a key and validates its length (32 bytes).
// Padded and unpadded encodings are both accepted.
func DecodeKey(raw string) ([]byte, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "=")
	decoded, err := base64.RawStdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, err
	}
	if len(decoded) != 32 {
		return nil, fmt.Errorf("invalid key length: %d", len(decoded))
	}
	return decoded, nil
}

// NewKey returns a fresh random key in the encoding DecodeKey accepts.
func NewKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.RawStdEncoding.EncodeToString(key), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
