package common

// Secure store slots.
const (
	StoreKeyEncryptionKey = "encryption_key"
	StoreKeyDeviceID      = "device_id"
)

// KeySize is the length of the shared symmetric key in bytes.
const KeySize = 32

// Heartbeat frames travel outside the JSON envelope.
const (
	FramePing = "ping"
	FramePong = "pong"
)

// AuthorizationHeaderName carries the bearer token on the relay handshake.
const AuthorizationHeaderName = "Authorization"

// TokenQueryParam carries the bearer token in the relay URL.
const TokenQueryParam = "token"
