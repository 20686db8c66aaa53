// Package registry owns the in-memory set of blocker records.
//
// The registry is the only mutable shared state in the detection core. It
// serializes writes (create, resolve, evict) against concurrent reads (list,
// stats) and hands out copies, never live references. Lifecycle changes are
// published to subscribers so consumers like notifications, the event store,
// and cloud sync stay decoupled from the detection call stack.
package registry
