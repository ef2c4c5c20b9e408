// Package client bootstraps the local persistence of the echosync client.
//
// InitDatabase opens (or creates) the SQLite database, restricts the file to
// the current user, applies the embedded goose migrations and returns the
// repositories built on top of it: the secure key-value store holding the
// shared key and device id, and the encrypted clipboard history.
package client
