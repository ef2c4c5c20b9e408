package protocol

import (
	"bytes"
	"fmt"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/cryptox"
)

// Codec seals outgoing text and opens incoming payloads. Whether it encrypts
// is fixed when it is built.
type Codec struct {
	key []byte
}

// NewCodec returns an encrypting codec for a 32-byte key, or a plaintext
// codec when key is empty.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return &Codec{}, nil
	}
	if len(key) != common.KeySize {
		return nil, fmt.Errorf("codec key is %d bytes: %w", len(key), common.ErrInvalidKey)
	}
	return &Codec{key: bytes.Clone(key)}, nil
}

// Encrypted reports whether the codec seals payloads.
func (c *Codec) Encrypted() bool {
	return c.key != nil
}

// Seal wraps text in the codec's payload kind.
func (c *Codec) Seal(text string) (Payload, error) {
	if c.key == nil {
		return Plain{Text: text}, nil
	}
	ct, nonce, err := cryptox.SealString(text, c.key)
	if err != nil {
		return nil, err
	}
	return Encrypted{Ciphertext: ct, Nonce: nonce}, nil
}

// Open returns the clipboard text of p. An encrypting codec refuses plaintext
// payloads and a plaintext codec cannot open encrypted ones; both cases are
// common.ErrAuthentication.
func (c *Codec) Open(p Payload) (string, error) {
	switch p := p.(type) {
	case Encrypted:
		if c.key == nil {
			return "", fmt.Errorf("no shared key for encrypted payload: %w", common.ErrAuthentication)
		}
		return cryptox.OpenString(p.Ciphertext, p.Nonce, c.key)
	case Plain:
		if c.key != nil {
			return "", fmt.Errorf("plaintext payload with shared key set: %w", common.ErrAuthentication)
		}
		return p.Text, nil
	default:
		return "", fmt.Errorf("unsupported payload %T: %w", p, common.ErrMalformedMessage)
	}
}

// SealMessage builds a ready-to-send frame.
func (c *Codec) SealMessage(deviceID, deviceName, text string) ([]byte, error) {
	p, err := c.Seal(text)
	if err != nil {
		return nil, err
	}
	return Encode(Message{DeviceID: deviceID, DeviceName: deviceName, Payload: p})
}
