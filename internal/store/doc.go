// Package store persists blocker events in SQLite.
//
// The registry keeps live blockers in memory; the store subscribes to its
// event stream and appends one row per created or resolved blocker. Each row
// carries a synced flag so cloud sync can deliver events to the dashboard
// exactly once and prune only what has been delivered.
//
// Schema changes are numbered migrations under migrations/; they apply in a
// single transaction on Open.
package store
