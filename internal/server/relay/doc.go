// Package relay forwards opaque text frames between the websocket
// connections of one account.
//
// A frame sent by any connection is delivered to every connection of the same
// account, the sender included; clients drop their own frames by device id.
// The literal text "ping" is answered with "pong" on the same connection and
// is not forwarded. Frames above a connection's rate limit are dropped
// without closing it. The last few frames of every account are kept in memory
// and served by GET /history.
//
// The relay never parses or decrypts frame content.
package relay
