// Package protocol defines the wire envelope exchanged through the relay and
// the payload codec.
//
// A data frame is a JSON object tagged with the sender's device id:
//
//	{"device_id": "...", "ciphertext": "<base64>", "nonce": "<base64>"}
//	{"device_id": "...", "content": "plain text"}
//
// device_name is optional on both. The literal text frames "ping" and "pong"
// are heartbeats and never reach the JSON decoder.
package protocol
