// Package cli provides the interactive echosync client.
//
// NewApp wires configuration, the local database, the key manager, the
// clipboard bridge and the sync engine. App.Run restores the encrypted
// history, starts the engine (and the reconnector when enabled), then runs a
// REPL until the user exits. The history is saved again on the way out.
//
// Commands:
//   - status, fingerprint, devices
//   - connect [token], disconnect
//   - send <text>
//   - history | ls [all|text|code|url] [search]
//   - show, copy, pin, delete <id>; clear
//   - link, import <uri>
//   - exit | quit
//
// Entry ids may be abbreviated to any unique prefix.
package cli
