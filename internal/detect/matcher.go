package detect

import (
	"fmt"
	"strings"
	"sync"
)

// developerTools are window title fragments that identify a developer tool.
// A match boosts signature confidence via the window multiplier.
var developerTools = []string{
	"terminal", "iterm", "console",
	"vs code", "vscode", "visual studio", "code - oss",
	"intellij", "pycharm", "goland", "webstorm", "rider",
	"xcode", "vim", "neovim", "emacs", "sublime", "cursor", "zed",
}

const (
	developerWindowMultiplier = 1.2
	neutralWindowMultiplier   = 1.0
)

// MatchResult is the outcome of running the signature catalog against one
// detection attempt's screen text.
type MatchResult struct {
	Detected   bool
	Signature  Signature
	Confidence float64
}

// RuleMatcher holds the mutable signature catalog. Matching is read-mostly;
// catalog mutations are safe to call concurrently with Match.
type RuleMatcher struct {
	mu         sync.RWMutex
	signatures []Signature
}

// NewRuleMatcher builds a matcher over the supplied catalog, preserving
// insertion order. A nil catalog yields the built-in defaults.
func NewRuleMatcher(catalog []Signature) (*RuleMatcher, error) {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	m := &RuleMatcher{}
	for _, sig := range catalog {
		if err := m.Add(sig); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Match runs the catalog in registration order and returns the first
// activating signature. A signature activates when at least one of its
// signals appears in the text and the activity duration meets its minimum.
func (m *RuleMatcher) Match(text string, activityDurationMs int64, windowTitle string) MatchResult {
	lowered := strings.ToLower(text)
	multiplier := windowMultiplier(windowTitle)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sig := range m.signatures {
		if activityDurationMs < sig.MinDurationMs {
			continue
		}
		matched := 0
		for _, signal := range sig.Signals {
			if strings.Contains(lowered, strings.ToLower(signal)) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		confidence := sig.BaseConfidence * multiplier * (float64(matched) / float64(len(sig.Signals)))
		if confidence > 1.0 {
			confidence = 1.0
		}
		return MatchResult{Detected: true, Signature: sig, Confidence: confidence}
	}
	return MatchResult{}
}

// Add appends a signature to the end of the catalog.
func (m *RuleMatcher) Add(sig Signature) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.signatures {
		if existing.ID == sig.ID {
			return fmt.Errorf("signature %s: already registered", sig.ID)
		}
	}
	m.signatures = append(m.signatures, sig)
	return nil
}

// Update replaces a registered signature in place, keeping its catalog
// position.
func (m *RuleMatcher) Update(sig Signature) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.signatures {
		if existing.ID == sig.ID {
			m.signatures[i] = sig
			return nil
		}
	}
	return fmt.Errorf("signature %s: not registered", sig.ID)
}

// Remove deletes a signature from the catalog. Removing an unknown id is a
// no-op.
func (m *RuleMatcher) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.signatures {
		if existing.ID == id {
			m.signatures = append(m.signatures[:i], m.signatures[i+1:]...)
			return
		}
	}
}

// Signatures returns a copy of the catalog in registration order.
func (m *RuleMatcher) Signatures() []Signature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Signature, len(m.signatures))
	copy(out, m.signatures)
	return out
}

func windowMultiplier(title string) float64 {
	lowered := strings.ToLower(title)
	for _, tool := range developerTools {
		if strings.Contains(lowered, tool) {
			return developerWindowMultiplier
		}
	}
	return neutralWindowMultiplier
}
