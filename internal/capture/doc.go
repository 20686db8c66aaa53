// Package capture gates access to the screen capture source.
//
// The coordinator enforces a single debounce window over all capture paths
// and hashes accepted frames so downstream consumers can skip analysis when
// nothing on screen changed. Frame buffers are treated as sensitive: they are
// never persisted and are scrubbed after analysis.
package capture
