// Package logs reads back the daemon log file for the CLI. It supports a
// bounded tail of the most recent lines and an optional follow mode that
// polls for appended output.
package logs
