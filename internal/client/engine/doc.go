// Package engine is the clipboard sync state machine.
//
// One goroutine (Run) owns the connection. Local clipboard changes, inbound
// frames, socket closures, dial results, heartbeat ticks and API calls all
// arrive as events and are handled in order. Reads and writes happen in
// per-socket pumps and heartbeats come from a per-socket ticker; Run only
// queues outbound frames and the other goroutines only forward events,
// tagged with a connection generation so anything left over from an earlier
// socket is ignored.
//
// States move Disconnected -> Connecting -> Connected -> Disconnected. The
// engine never reconnects by itself; Reconnector implements that policy on
// top of Connect.
package engine
