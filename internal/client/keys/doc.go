// Package keys manages the shared symmetric key and the device identity of an
// echosync installation.
//
// The shared key is generated once, persisted in the secure store under
// "encryption_key" (URL-safe base64 without padding) and loaded on every later
// start. The device id is a UUIDv4 persisted under "device_id". When the store
// cannot be reached the Manager keeps working with session-only values and
// reports Degraded.
package keys
