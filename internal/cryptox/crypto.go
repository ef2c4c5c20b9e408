// Package cryptox implements the authenticated encryption used for clipboard
// payloads and the helpers that encode key material for storage and linking.
package cryptox

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/echosync/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// NonceSize is the XChaCha20-Poly1305 nonce length.
const NonceSize = chacha20poly1305.NonceSizeX

// fingerprintLen is the number of hex characters kept from the key digest.
const fingerprintLen = 8

// Encrypt seals plaintext with XChaCha20-Poly1305 under key.
//
// A fresh 24-byte nonce is read from crypto/rand on every call. There is no
// counter or other shared state, so concurrent callers can never reuse a
// nonce under the same key. The Poly1305 tag authenticates the ciphertext
// for exactly this nonce.
//
// The key must be 32 bytes, otherwise common.ErrInvalidKey is returned.
//
// Example:
//
//	key := common.GenerateRandByteArray(common.KeySize)
//	ct, nonce, err := cryptox.Encrypt([]byte("abc123"), key)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pt, err := cryptox.Decrypt(ct, nonce, key) // pt == "abc123"
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("nonce generation failed: %w", err)
	}

	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt authenticates and opens ciphertext produced by Encrypt.
//
// A tag that does not verify (tampered ciphertext or nonce, or a different
// key) yields common.ErrAuthentication and no plaintext at all. A nonce of the
// wrong length is common.ErrMalformedMessage.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce length %d: %w", len(nonce), common.ErrMalformedMessage)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthentication
	}
	return plaintext, nil
}

// SealString encrypts text and returns ciphertext and nonce as standard
// base64, the form carried on the wire.
func SealString(text string, key []byte) (ciphertext, nonce string, err error) {
	ct, n, err := Encrypt([]byte(text), key)
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(ct), base64.StdEncoding.EncodeToString(n), nil
}

// OpenString reverses SealString. Undecodable base64 is reported as
// common.ErrMalformedMessage.
func OpenString(ciphertext, nonce string, key []byte) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("ciphertext: %w", common.ErrMalformedMessage)
	}
	n, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		return "", fmt.Errorf("nonce: %w", common.ErrMalformedMessage)
	}

	pt, err := Decrypt(ct, n, key)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// Fingerprint returns the first 8 hex characters of SHA-256(key), uppercase.
// Two devices show the same fingerprint iff they hold the same key.
func Fingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return strings.ToUpper(hex.EncodeToString(sum[:])[:fingerprintLen])
}

// EncodeKey renders key as URL-safe base64 without padding. This is the form
// kept in the secure store and embedded in link URIs.
func EncodeKey(key []byte) string {
	return base64.RawURLEncoding.EncodeToString(key)
}

// DecodeKey parses EncodeKey output. Trailing padding is tolerated. The
// result must be exactly common.KeySize bytes.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", common.ErrInvalidKey)
	}
	if len(key) != common.KeySize {
		return nil, fmt.Errorf("key is %d bytes: %w", len(key), common.ErrInvalidKey)
	}
	return key, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("key is %d bytes: %w", len(key), common.ErrInvalidKey)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	return aead, nil
}
