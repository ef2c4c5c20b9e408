package protocol

import (
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_WireShapes(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want map[string]any
	}{
		{
			name: "encrypted",
			msg:  Message{DeviceID: "dev-a", Payload: Encrypted{Ciphertext: "Y3Q=", Nonce: "bm9uY2U="}},
			want: map[string]any{"device_id": "dev-a", "ciphertext": "Y3Q=", "nonce": "bm9uY2U="},
		},
		{
			name: "plain with device name",
			msg:  Message{DeviceID: "dev-a", DeviceName: "laptop", Payload: Plain{Text: "hi"}},
			want: map[string]any{"device_id": "dev-a", "device_name": "laptop", "content": "hi"},
		},
		{
			name: "plain empty content keeps the field",
			msg:  Message{DeviceID: "dev-a", Payload: Plain{Text: ""}},
			want: map[string]any{"device_id": "dev-a", "content": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.msg)
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(b, &got))
			assert.Equal(t, tt.want, got)

			back, err := Decode(b)
			require.NoError(t, err)
			assert.Equal(t, tt.msg, back)
		})
	}
}

func TestEncode_NilPayload(t *testing.T) {
	_, err := Encode(Message{DeviceID: "dev-a"})
	assert.ErrorIs(t, err, common.ErrMalformedMessage)
}

func TestDecode_Malformed(t *testing.T) {
	for name, frame := range map[string]string{
		"not json":          `{oops`,
		"array":             `[1,2]`,
		"missing device id": `{"content":"x"}`,
		"no payload":        `{"device_id":"a"}`,
		"both shapes":       `{"device_id":"a","content":"x","ciphertext":"y","nonce":"z"}`,
		"nonce only":        `{"device_id":"a","nonce":"z"}`,
		"ciphertext only":   `{"device_id":"a","ciphertext":"y"}`,
		"ping is not json":  `ping`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(frame))
			assert.ErrorIs(t, err, common.ErrMalformedMessage)
		})
	}
}

func TestHeartbeatFrames(t *testing.T) {
	assert.True(t, IsPing([]byte("ping")))
	assert.True(t, IsPong([]byte("pong")))
	assert.True(t, IsHeartbeat([]byte("pong\n")))
	assert.False(t, IsHeartbeat([]byte(`{"device_id":"ping"}`)))
	assert.False(t, IsPing([]byte("pong")))
}
