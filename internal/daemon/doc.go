// Package daemon coordinates the long-running FlowSight process and system
// integration points.
//
// It wires configuration, the event store, the blocker registry, and the
// detection pipeline into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon drives scheduled detections,
// periodic eviction sweeps, cloud sync, and the HTTP API, and owns the
// notifications triggered by blocker create/resolve events.
//
// Keep orchestration logic here: individual detection steps should live in
// their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
