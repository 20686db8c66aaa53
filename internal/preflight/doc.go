// Package preflight provides readiness checks for the external services
// and filesystem paths that FlowSight depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll on startup and logs every failure before
//     entering the monitor loop, so a misconfigured provider is visible
//     immediately rather than as silent detection degradation.
//   - The CLI "flowsight status" command uses individual check functions
//     to display service health.
//
// Each check is gated by its config toggle -- unconfigured providers are
// skipped.
package preflight
