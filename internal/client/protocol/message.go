package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/echosync/internal/common"
)

// Payload is either Plain or Encrypted.
type Payload interface {
	isPayload()
}

// Plain carries clipboard text as is. Used only when no shared key exists.
type Plain struct {
	Text string
}

// Encrypted carries base64 ciphertext and nonce.
type Encrypted struct {
	Ciphertext string
	Nonce      string
}

func (Plain) isPayload()     {}
func (Encrypted) isPayload() {}

// Message is a decoded data frame.
type Message struct {
	DeviceID   string
	DeviceName string
	Payload    Payload
}

type wireMessage struct {
	DeviceID   string  `json:"device_id"`
	DeviceName string  `json:"device_name,omitempty"`
	Content    *string `json:"content,omitempty"`
	Ciphertext *string `json:"ciphertext,omitempty"`
	Nonce      *string `json:"nonce,omitempty"`
}

// Encode renders m as a JSON text frame.
func Encode(m Message) ([]byte, error) {
	w := wireMessage{DeviceID: m.DeviceID, DeviceName: m.DeviceName}

	switch p := m.Payload.(type) {
	case Plain:
		w.Content = &p.Text
	case Encrypted:
		w.Ciphertext = &p.Ciphertext
		w.Nonce = &p.Nonce
	default:
		return nil, fmt.Errorf("unsupported payload %T: %w", m.Payload, common.ErrMalformedMessage)
	}

	return json.Marshal(w)
}

// Decode parses a JSON data frame. Anything that is not exactly one of the two
// envelope shapes is common.ErrMalformedMessage.
func Decode(frame []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(frame, &w); err != nil {
		return Message{}, fmt.Errorf("%w: %v", common.ErrMalformedMessage, err)
	}
	if w.DeviceID == "" {
		return Message{}, fmt.Errorf("missing device_id: %w", common.ErrMalformedMessage)
	}

	m := Message{DeviceID: w.DeviceID, DeviceName: w.DeviceName}

	encrypted := w.Ciphertext != nil || w.Nonce != nil
	switch {
	case encrypted && w.Content != nil:
		return Message{}, fmt.Errorf("both content and ciphertext: %w", common.ErrMalformedMessage)
	case encrypted:
		if w.Ciphertext == nil || w.Nonce == nil {
			return Message{}, fmt.Errorf("ciphertext without nonce: %w", common.ErrMalformedMessage)
		}
		m.Payload = Encrypted{Ciphertext: *w.Ciphertext, Nonce: *w.Nonce}
	case w.Content != nil:
		m.Payload = Plain{Text: *w.Content}
	default:
		return Message{}, fmt.Errorf("no payload: %w", common.ErrMalformedMessage)
	}

	return m, nil
}

// IsPing reports whether frame is the heartbeat request.
func IsPing(frame []byte) bool {
	return bytes.Equal(bytes.TrimSpace(frame), []byte(common.FramePing))
}

// IsPong reports whether frame is the heartbeat response.
func IsPong(frame []byte) bool {
	return bytes.Equal(bytes.TrimSpace(frame), []byte(common.FramePong))
}

// IsHeartbeat reports whether frame is "ping" or "pong".
func IsHeartbeat(frame []byte) bool {
	return IsPing(frame) || IsPong(frame)
}
