// Package linking transfers the shared key to a new device.
//
// The existing device renders a one-time URI
//
//	echo://connect?id=<deviceId>&key=<urlsafe-base64-key>&server=<relay>
//
// as a QR code; the new device parses it and imports the key. The URI carries
// the secret key and is never logged or stored.
package linking
