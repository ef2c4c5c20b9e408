// Package relay is the client side of the duplex transport to the relay
// server: a Dialer that opens authenticated websocket connections and the
// Socket abstraction the sync engine reads from and writes to.
package relay
