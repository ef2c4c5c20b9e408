// Package history keeps the in-memory clipboard history of a device.
//
// Entries are held in insertion order, newest first. An append whose content
// equals the newest entry is ignored. Above MaxEntries the oldest unpinned
// entries are evicted; pinned entries never are, and an append to a store
// full of pinned entries is refused. Reads (Query, List) return fresh copies sorted
// pinned-first, then by timestamp descending, ties broken by insertion order.
package history
