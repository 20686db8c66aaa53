// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal blocker records into transport-friendly
// DTOs that the dashboard and CLI can render without coupling to internal
// types.
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (detect.Category, detect.Severity) are exposed as lowercase strings
// and timestamps use RFC3339 with milliseconds.
package api
