package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// ErrCodec reports a malformed or tampered ciphertext. Callers must treat it
// as distinct from an absent secret.
var ErrCodec = errors.New("cryptox: malformed or unauthentic ciphertext")

// kdfSalt is a fixed context string, not a secret: the master secret is the
// only provisioned input and the derived key must be deterministic across
// restarts so previously encrypted records stay readable.
const kdfSalt = "userd/secretbox/v1"

// scrypt cost parameters. Interactive-grade: key derivation happens once at
// startup, not per request.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

// SecretBox symmetrically protects small secrets (the TOTP seed) at rest.
// The AES-256 key is derived once from the configured master secret, so no
// second secret needs provisioning. Output framing is
// base64(nonce) ":" base64(ciphertext) - the nonce is unique per call, not
// secret.
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox derives the encryption key from masterSecret via scrypt and
// prepares an AES-256-GCM AEAD.
func NewSecretBox(masterSecret string) (*SecretBox, error) {
	if masterSecret == "" {
		return nil, errors.New("cryptox: master secret must not be empty")
	}

	key, err := scrypt.Key([]byte(masterSecret), []byte(kdfSalt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("cryptox: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}

	return &SecretBox{aead: aead}, nil
}

// Encrypt seals plaintext with a fresh random nonce. Encrypting the empty
// string is a no-op returning "" - there is no emptiness worth encrypting.
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	sealed := b.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(nonce) + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any framing or authentication failure yields
// ErrCodec; "" decrypts to "" mirroring the Encrypt no-op.
func (b *SecretBox) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	nonceStr, sealedStr, ok := strings.Cut(encoded, ":")
	if !ok {
		return "", fmt.Errorf("%w: missing separator", ErrCodec)
	}

	nonce, err := base64.StdEncoding.DecodeString(nonceStr)
	if err != nil {
		return "", fmt.Errorf("%w: undecodable nonce", ErrCodec)
	}
	if len(nonce) != b.aead.NonceSize() {
		return "", fmt.Errorf("%w: bad nonce length", ErrCodec)
	}

	sealed, err := base64.StdEncoding.DecodeString(sealedStr)
	if err != nil {
		return "", fmt.Errorf("%w: undecodable ciphertext", ErrCodec)
	}

	plaintext, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrCodec)
	}

	return string(plaintext), nil
}
