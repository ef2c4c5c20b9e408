// Package clipboard connects the sync engine to the OS clipboard.
//
// SystemBridge polls the system clipboard through github.com/atotto/clipboard
// and publishes every change once on its Changes channel. Text written through
// the bridge itself is remembered and never reported back as a change, which
// keeps remote deliveries from bouncing back to the relay. Writer serialises
// clipboard writes on a single background worker with a bounded queue.
package clipboard
