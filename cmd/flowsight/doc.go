// Package main implements the flowsight command line interface. It talks to
// the background daemon over a unix socket and renders blocker state for
// interactive use.
package main
