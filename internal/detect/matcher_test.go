package detect_test

import (
	"strings"
	"sync"
	"testing"

	"flowsight/internal/detect"
)

func TestMatchBuildFailureInDeveloperWindow(t *testing.T) {
	matcher, err := detect.NewRuleMatcher(nil)
	if err != nil {
		t.Fatalf("NewRuleMatcher: %v", err)
	}

	result := matcher.Match("Error: Compilation failed", 5000, "VS Code")
	if !result.Detected {
		t.Fatal("expected detection")
	}
	if result.Signature.Category != detect.CategoryBuildError {
		t.Fatalf("category = %s", result.Signature.Category)
	}
	if result.Confidence <= 0.8 {
		t.Fatalf("confidence = %v, want > 0.8 with window multiplier", result.Confidence)
	}
	if result.Confidence > 1.0 {
		t.Fatalf("confidence = %v, must never exceed 1.0", result.Confidence)
	}
}

func TestMatchRespectsMinDuration(t *testing.T) {
	matcher, err := detect.NewRuleMatcher(nil)
	if err != nil {
		t.Fatalf("NewRuleMatcher: %v", err)
	}

	for _, sig := range matcher.Signatures() {
		text := strings.Join(sig.Signals, " ")
		result := matcher.Match(text, sig.MinDurationMs-1, "Terminal")
		if result.Detected && result.Signature.ID == sig.ID {
			t.Errorf("signature %s activated below its min duration", sig.ID)
		}
		result = matcher.Match(text, sig.MinDurationMs, "Terminal")
		if !result.Detected {
			t.Errorf("signature %s did not activate at its min duration", sig.ID)
		}
	}
}

func TestMatchFirstActivatingSignatureWins(t *testing.T) {
	catalog := []detect.Signature{
		{ID: "a", Name: "A", Category: detect.CategoryTimeout, Signals: []string{"stuck"}, BaseConfidence: 0.6},
		{ID: "b", Name: "B", Category: detect.CategoryTimeout, Signals: []string{"stuck"}, BaseConfidence: 0.9},
	}
	matcher, err := detect.NewRuleMatcher(catalog)
	if err != nil {
		t.Fatalf("NewRuleMatcher: %v", err)
	}

	result := matcher.Match("the build is stuck", 1000, "Chrome")
	if !result.Detected || result.Signature.ID != "a" {
		t.Fatalf("expected first signature to win, got %+v", result)
	}
	if result.Confidence != 0.6 {
		t.Fatalf("confidence = %v, want 0.6 without window multiplier", result.Confidence)
	}
}

func TestMatchPartialSignalFraction(t *testing.T) {
	catalog := []detect.Signature{
		{
			ID:             "partial",
			Name:           "Partial",
			Category:       detect.CategoryPermission,
			Signals:        []string{"denied", "forbidden", "unauthorized", "eperm"},
			BaseConfidence: 0.8,
		},
	}
	matcher, err := detect.NewRuleMatcher(catalog)
	if err != nil {
		t.Fatalf("NewRuleMatcher: %v", err)
	}

	result := matcher.Match("request DENIED: forbidden", 0, "notes")
	if !result.Detected {
		t.Fatal("expected detection")
	}
	want := 0.8 * 1.0 * (2.0 / 4.0)
	if diff := result.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("confidence = %v, want %v", result.Confidence, want)
	}
}

func TestMatchNoSignalsMeansZeroConfidence(t *testing.T) {
	matcher, err := detect.NewRuleMatcher(nil)
	if err != nil {
		t.Fatalf("NewRuleMatcher: %v", err)
	}
	result := matcher.Match("just reading documentation", 60000, "Terminal")
	if result.Detected || result.Confidence != 0 {
		t.Fatalf("expected no detection, got %+v", result)
	}
}

func TestCatalogMutation(t *testing.T) {
	matcher, err := detect.NewRuleMatcher([]detect.Signature{})
	if err != nil {
		t.Fatalf("NewRuleMatcher: %v", err)
	}

	sig := detect.Signature{
		ID: "custom", Name: "Custom", Category: detect.CategoryTimeout,
		Signals: []string{"spinner"}, BaseConfidence: 0.7,
	}
	if err := matcher.Add(sig); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := matcher.Add(sig); err == nil {
		t.Fatal("duplicate Add should fail")
	}

	sig.BaseConfidence = 0.9
	if err := matcher.Update(sig); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := matcher.Signatures()[0].BaseConfidence; got != 0.9 {
		t.Fatalf("update not applied: %v", got)
	}

	matcher.Remove("custom")
	matcher.Remove("custom") // unknown id is a no-op
	if len(matcher.Signatures()) != 0 {
		t.Fatal("signature not removed")
	}
}

func TestCatalogRejectsInvalidSignatures(t *testing.T) {
	invalid := []detect.Signature{
		{ID: "", Category: detect.CategoryTimeout, Signals: []string{"x"}, BaseConfidence: 0.7},
		{ID: "no-signals", Category: detect.CategoryTimeout, BaseConfidence: 0.7},
		{ID: "low-confidence", Category: detect.CategoryTimeout, Signals: []string{"x"}, BaseConfidence: 0.4},
		{ID: "bad-category", Category: detect.Category("weird"), Signals: []string{"x"}, BaseConfidence: 0.7},
	}
	for _, sig := range invalid {
		if _, err := detect.NewRuleMatcher([]detect.Signature{sig}); err == nil {
			t.Errorf("expected validation error for signature %q", sig.ID)
		}
	}
}

func TestMatchConcurrentWithMutation(t *testing.T) {
	matcher, err := detect.NewRuleMatcher(nil)
	if err != nil {
		t.Fatalf("NewRuleMatcher: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				matcher.Match("error: permission denied", 10000, "Terminal")
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			sig := detect.Signature{
				ID: "churn", Name: "Churn", Category: detect.CategoryTimeout,
				Signals: []string{"churn"}, BaseConfidence: 0.7,
			}
			_ = matcher.Add(sig)
			matcher.Remove("churn")
		}
	}()
	wg.Wait()
}
