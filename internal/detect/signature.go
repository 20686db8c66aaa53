package detect

import (
	"errors"
	"fmt"
	"strings"
)

// Signature is a deterministic rule used to recognize a known blocker pattern
// in extracted screen text.
type Signature struct {
	ID       string
	Name     string
	Category Category
	// Signals are matched case-insensitively as substrings of the screen text.
	Signals []string
	// BaseConfidence must lie in [0.5, 1.0].
	BaseConfidence float64
	// MinDurationMs is the minimum time the developer must have spent on the
	// window before this signature may activate.
	MinDurationMs int64
}

// Validate checks the catalog invariants for a single signature.
func (s Signature) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("signature: id required")
	}
	if len(s.Signals) == 0 {
		return fmt.Errorf("signature %s: at least one signal required", s.ID)
	}
	if s.BaseConfidence < 0.5 || s.BaseConfidence > 1.0 {
		return fmt.Errorf("signature %s: base confidence %.2f outside [0.5, 1.0]", s.ID, s.BaseConfidence)
	}
	if s.MinDurationMs < 0 {
		return fmt.Errorf("signature %s: negative min duration", s.ID)
	}
	switch s.Category {
	case CategoryBuildError, CategoryTimeout, CategoryCircularDependency,
		CategoryPermission, CategoryResourceExhaustion:
		return nil
	default:
		return fmt.Errorf("signature %s: category %q not in catalog set", s.ID, s.Category)
	}
}

// DefaultCatalog returns the built-in blocker signatures in priority order.
// Catalog order is significant: Match returns the first activating signature.
func DefaultCatalog() []Signature {
	return []Signature{
		{
			ID:             "build-failure",
			Name:           "Build failure",
			Category:       CategoryBuildError,
			Signals:        []string{"error", "failed", "compilation"},
			BaseConfidence: 0.85,
			MinDurationMs:  3000,
		},
		{
			ID:             "test-failure",
			Name:           "Test failure",
			Category:       CategoryBuildError,
			Signals:        []string{"test failed", "tests failed", "assertion"},
			BaseConfidence: 0.8,
			MinDurationMs:  5000,
		},
		{
			ID:             "operation-timeout",
			Name:           "Operation timeout",
			Category:       CategoryTimeout,
			Signals:        []string{"timed out", "timeout", "not responding", "deadline exceeded"},
			BaseConfidence: 0.8,
			MinDurationMs:  10000,
		},
		{
			ID:             "dependency-cycle",
			Name:           "Dependency cycle",
			Category:       CategoryCircularDependency,
			Signals:        []string{"circular dependency", "import cycle", "dependency cycle"},
			BaseConfidence: 0.9,
			MinDurationMs:  3000,
		},
		{
			ID:             "access-denied",
			Name:           "Access denied",
			Category:       CategoryPermission,
			Signals:        []string{"permission denied", "access denied", "unauthorized", "eacces"},
			BaseConfidence: 0.85,
			MinDurationMs:  3000,
		},
		{
			ID:             "resource-limit",
			Name:           "Resource limit",
			Category:       CategoryResourceExhaustion,
			Signals:        []string{"out of memory", "no space left", "disk full", "too many open files"},
			BaseConfidence: 0.9,
			MinDurationMs:  3000,
		},
	}
}
