// Package pipeline runs full detection cycles. A cycle walks the capture
// gate, the provider orchestrator, and the consensus scorer, then hands any
// blocker that clears the activation threshold to the registry. Cycles
// degrade rather than fail: missing providers shrink the signal set and the
// pipeline reports that through Health.
package pipeline
