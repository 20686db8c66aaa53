// Package config loads, normalizes, and validates the FlowSight agent
// configuration.
//
// Configuration lives in a TOML file (default ~/.config/flowsight/config.toml,
// with flowsight.toml in the working directory as a project-local fallback).
// Load applies defaults, expands ~ paths, and validates cross-field invariants
// so the rest of the system can treat a *Config as always well formed.
package config
