// Package logging assembles the structured slog loggers used across the
// FlowSight agent.
//
// It owns the console/JSON handler selection, level parsing, and output
// fan-out, and exposes typed attr helpers plus a no-op logger for tests.
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
