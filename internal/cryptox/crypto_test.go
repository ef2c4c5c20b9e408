package cryptox

import (
	"bytes"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) []byte {
	t.Helper()
	return common.GenerateRandByteArray(common.KeySize)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := newKey(t)

	tests := []struct {
		name string
		msg  []byte
	}{
		{name: "empty", msg: []byte{}},
		{name: "ascii", msg: []byte("abc123")},
		{name: "unicode", msg: []byte("привет, мир ✓")},
		{name: "binary", msg: []byte{0x00, 0xff, 0x10, 0x80}},
		{name: "large", msg: bytes.Repeat([]byte("x"), 64*1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, nonce, err := Encrypt(tt.msg, key)
			require.NoError(t, err)
			require.Len(t, nonce, NonceSize)

			pt, err := Decrypt(ct, nonce, key)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.msg, pt))
		})
	}
}

func TestDecrypt_AnySingleBitFlipFailsAuthentication(t *testing.T) {
	key := newKey(t)
	ct, nonce, err := Encrypt([]byte("clipboard payload"), key)
	require.NoError(t, err)

	for i := 0; i < len(ct)*8; i++ {
		tampered := append([]byte(nil), ct...)
		tampered[i/8] ^= 1 << (i % 8)
		_, err := Decrypt(tampered, nonce, key)
		require.ErrorIs(t, err, common.ErrAuthentication, "ciphertext bit %d", i)
	}

	for i := 0; i < len(nonce)*8; i++ {
		tampered := append([]byte(nil), nonce...)
		tampered[i/8] ^= 1 << (i % 8)
		_, err := Decrypt(ct, tampered, key)
		require.ErrorIs(t, err, common.ErrAuthentication, "nonce bit %d", i)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	ct, nonce, err := Encrypt([]byte("secret"), newKey(t))
	require.NoError(t, err)

	pt, err := Decrypt(ct, nonce, newKey(t))
	assert.ErrorIs(t, err, common.ErrAuthentication)
	assert.Nil(t, pt)
}

func TestDecrypt_BadNonceLength(t *testing.T) {
	key := newKey(t)
	ct, _, err := Encrypt([]byte("x"), key)
	require.NoError(t, err)

	_, err = Decrypt(ct, make([]byte, 12), key)
	assert.ErrorIs(t, err, common.ErrMalformedMessage)
}

func TestEncrypt_RejectsShortKey(t *testing.T) {
	_, _, err := Encrypt([]byte("x"), make([]byte, 16))
	assert.ErrorIs(t, err, common.ErrInvalidKey)
}

func TestEncrypt_NoncesUniqueUnderConcurrency(t *testing.T) {
	key := newKey(t)

	const workers, perWorker = 8, 200
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, nonce, err := Encrypt([]byte("same"), key)
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				seen[string(nonce)] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestSealOpenString(t *testing.T) {
	key := newKey(t)

	ct, nonce, err := SealString("abc123", key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(nonce)
	require.NoError(t, err)
	assert.Len(t, raw, NonceSize)

	got, err := OpenString(ct, nonce, key)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)

	_, err = OpenString("%%%", nonce, key)
	assert.True(t, errors.Is(err, common.ErrMalformedMessage))

	_, err = OpenString(ct, "%%%", key)
	assert.True(t, errors.Is(err, common.ErrMalformedMessage))
}

func TestFingerprint(t *testing.T) {
	k1 := newKey(t)
	k2 := newKey(t)

	f := Fingerprint(k1)
	assert.Len(t, f, 8)
	assert.Equal(t, f, Fingerprint(k1))
	assert.NotEqual(t, f, Fingerprint(k2))
	assert.Regexp(t, `^[0-9A-F]{8}$`, f)

	// sha256 of 32 zero bytes starts with 66687aad
	assert.Equal(t, "66687AAD", Fingerprint(make([]byte, 32)))
}

func TestEncodeDecodeKey(t *testing.T) {
	key := newKey(t)

	s := EncodeKey(key)
	assert.NotContains(t, s, "=")
	assert.NotContains(t, s, "+")
	assert.NotContains(t, s, "/")

	got, err := DecodeKey(s)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = DecodeKey(s + "=")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = DecodeKey(EncodeKey(key[:16]))
	assert.ErrorIs(t, err, common.ErrInvalidKey)

	_, err = DecodeKey("not base64 !")
	assert.ErrorIs(t, err, common.ErrInvalidKey)
}
