package protocol

import (
	"testing"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_EncryptedRoundTrip(t *testing.T) {
	key := common.GenerateRandByteArray(common.KeySize)
	c, err := NewCodec(key)
	require.NoError(t, err)
	require.True(t, c.Encrypted())

	frame, err := c.SealMessage("dev-a", "laptop", "abc123")
	require.NoError(t, err)
	assert.NotContains(t, string(frame), "abc123")

	msg, err := Decode(frame)
	require.NoError(t, err)
	require.IsType(t, Encrypted{}, msg.Payload)

	receiver, err := NewCodec(key)
	require.NoError(t, err)
	text, err := receiver.Open(msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, "abc123", text)
}

func TestCodec_PlainRoundTrip(t *testing.T) {
	c, err := NewCodec(nil)
	require.NoError(t, err)
	require.False(t, c.Encrypted())

	p, err := c.Seal("hello")
	require.NoError(t, err)
	assert.Equal(t, Plain{Text: "hello"}, p)

	text, err := c.Open(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestCodec_WrongKeyIsAuthenticationError(t *testing.T) {
	a, err := NewCodec(common.GenerateRandByteArray(common.KeySize))
	require.NoError(t, err)
	b, err := NewCodec(common.GenerateRandByteArray(common.KeySize))
	require.NoError(t, err)

	p, err := a.Seal("secret")
	require.NoError(t, err)

	_, err = b.Open(p)
	assert.ErrorIs(t, err, common.ErrAuthentication)
}

func TestCodec_ModeMismatch(t *testing.T) {
	enc, err := NewCodec(common.GenerateRandByteArray(common.KeySize))
	require.NoError(t, err)
	plain, err := NewCodec(nil)
	require.NoError(t, err)

	_, err = enc.Open(Plain{Text: "injected"})
	assert.ErrorIs(t, err, common.ErrAuthentication)

	p, err := enc.Seal("x")
	require.NoError(t, err)
	_, err = plain.Open(p)
	assert.ErrorIs(t, err, common.ErrAuthentication)
}

func TestCodec_BadBase64IsMalformed(t *testing.T) {
	c, err := NewCodec(common.GenerateRandByteArray(common.KeySize))
	require.NoError(t, err)

	_, err = c.Open(Encrypted{Ciphertext: "!!!", Nonce: "AAAA"})
	assert.ErrorIs(t, err, common.ErrMalformedMessage)
}

func TestNewCodec_RejectsShortKey(t *testing.T) {
	_, err := NewCodec([]byte("short"))
	assert.ErrorIs(t, err, common.ErrInvalidKey)
}

func TestCodec_KeepsOwnCopyOfKey(t *testing.T) {
	key := common.GenerateRandByteArray(common.KeySize)
	c, err := NewCodec(key)
	require.NoError(t, err)

	p, err := c.Seal("x")
	require.NoError(t, err)

	common.WipeByteArray(key)

	text, err := c.Open(p)
	require.NoError(t, err)
	assert.Equal(t, "x", text)
}
