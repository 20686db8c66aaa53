// Package services hosts the clients for the external analysis providers the
// detection engine consumes (OCR, vision, language model) together with the
// shared error taxonomy used to classify their failures.
//
// Provider failures are expected operating conditions, not faults: every
// client reports errors through the sentinel markers in errors.go so the
// orchestrator can degrade gracefully instead of aborting a detection.
package services
