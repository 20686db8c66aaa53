package detect_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"flowsight/internal/detect"
	"flowsight/internal/services/llm"
	"flowsight/internal/services/ocr"
	"flowsight/internal/services/vision"
)

type fakeOCR struct {
	result ocr.Result
	err    error
	calls  int
}

func (f *fakeOCR) Extract(ctx context.Context, image []byte) (ocr.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeVision struct {
	result vision.Result
	err    error
	delay  time.Duration
	calls  int
}

func (f *fakeVision) Analyze(ctx context.Context, image []byte) (vision.Result, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return vision.Result{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.result, f.err
}

type fakeLLM struct {
	result llm.Analysis
	err    error
	req    llm.Request
	calls  int
}

func (f *fakeLLM) AnalyzeBlocker(ctx context.Context, req llm.Request) (llm.Analysis, error) {
	f.calls++
	f.req = req
	return f.result, f.err
}

func newMatcher(t *testing.T) *detect.RuleMatcher {
	t.Helper()
	matcher, err := detect.NewRuleMatcher(nil)
	if err != nil {
		t.Fatalf("NewRuleMatcher: %v", err)
	}
	return matcher
}

func TestAnalyzeSkipsVisionOnConfidentOCR(t *testing.T) {
	ocrProvider := &fakeOCR{result: ocr.Result{Text: "Error: Compilation failed", Confidence: 0.9}}
	visionProvider := &fakeVision{}
	llmProvider := &fakeLLM{result: llm.Analysis{Category: "build-error", Severity: "high", Confidence: 0.6}}

	o := detect.NewOrchestrator(ocrProvider, visionProvider, llmProvider, newMatcher(t), nil)
	scores := o.Analyze(context.Background(), []byte{1}, detect.Context{
		WindowTitle:        "VS Code",
		ActivityDurationMs: 5000,
	})

	if visionProvider.calls != 0 {
		t.Fatal("vision must be gated off when OCR confidence >= 0.7")
	}
	if scores.Vision.Available {
		t.Fatal("vision signal should be absent")
	}
	if !scores.Rule.Detected {
		t.Fatal("rule matcher should run on OCR text")
	}
	if scores.LLM.Fallback {
		t.Fatal("LLM result should be real, not fallback")
	}
	if llmProvider.req.WindowName != "VS Code" || llmProvider.req.OCRText != "Error: Compilation failed" {
		t.Fatalf("llm request missing context: %+v", llmProvider.req)
	}
}

func TestAnalyzeRunsVisionOnLowOCRConfidence(t *testing.T) {
	ocrProvider := &fakeOCR{result: ocr.Result{Text: "blurry", Confidence: 0.2}}
	visionProvider := &fakeVision{result: vision.Result{HasError: true, Confidence: 0.8}}
	llmProvider := &fakeLLM{result: llm.Analysis{Category: "other", Confidence: 0.4}}

	o := detect.NewOrchestrator(ocrProvider, visionProvider, llmProvider, newMatcher(t), nil)
	scores := o.Analyze(context.Background(), []byte{1}, detect.Context{ActivityDurationMs: 4000})

	if visionProvider.calls != 1 {
		t.Fatalf("vision calls = %d, want 1", visionProvider.calls)
	}
	if !scores.Vision.Available || !scores.Vision.Verdict.HasError {
		t.Fatalf("vision verdict lost: %+v", scores.Vision)
	}
}

func TestAnalyzeDegradesOnAllProviderFailures(t *testing.T) {
	ocrProvider := &fakeOCR{err: errors.New("ocr daemon down")}
	visionProvider := &fakeVision{err: errors.New("model missing")}
	llmProvider := &fakeLLM{err: errors.New("ollama offline")}

	o := detect.NewOrchestrator(ocrProvider, visionProvider, llmProvider, newMatcher(t), nil)
	scores := o.Analyze(context.Background(), []byte{1}, detect.Context{ActivityDurationMs: 9000})

	if scores.OCRText != "" || scores.OCRConfidence != 0 {
		t.Fatalf("failed OCR must degrade to empty text: %+v", scores)
	}
	if scores.Vision.Available {
		t.Fatal("failed vision must read as no signal")
	}
	if !scores.LLM.Fallback {
		t.Fatal("failed LLM must use the conservative fallback")
	}
	if scores.LLM.Analysis.Category != "other" || scores.LLM.Analysis.Confidence != 0.3 {
		t.Fatalf("unexpected fallback: %+v", scores.LLM.Analysis)
	}
	if final := detect.Score(scores); final > detect.DefaultActivationThreshold {
		t.Fatalf("degraded score %v must stay below threshold", final)
	}
}

func TestAnalyzeVisionTimeoutIsNoSignal(t *testing.T) {
	ocrProvider := &fakeOCR{result: ocr.Result{Text: "x", Confidence: 0.1}}
	visionProvider := &fakeVision{delay: 200 * time.Millisecond, result: vision.Result{HasError: true}}
	llmProvider := &fakeLLM{result: llm.Analysis{Confidence: 0.5}}

	o := detect.NewOrchestrator(
		ocrProvider, visionProvider, llmProvider, newMatcher(t), nil,
		detect.WithTimeouts(0, 10*time.Millisecond, 0),
	)
	scores := o.Analyze(context.Background(), []byte{1}, detect.Context{})

	if scores.Vision.Available {
		t.Fatal("timed-out vision must read as no signal")
	}
	if scores.LLM.Fallback {
		t.Fatal("vision timeout must not affect the LLM branch")
	}
}

func TestAnalyzeEmptyFrameSkipsImageProviders(t *testing.T) {
	ocrProvider := &fakeOCR{result: ocr.Result{Text: "stale", Confidence: 0.9}}
	visionProvider := &fakeVision{}
	llmProvider := &fakeLLM{result: llm.Analysis{Confidence: 0.2}}

	o := detect.NewOrchestrator(ocrProvider, visionProvider, llmProvider, newMatcher(t), nil)
	scores := o.Analyze(context.Background(), nil, detect.Context{})

	if ocrProvider.calls != 0 || visionProvider.calls != 0 {
		t.Fatal("image providers must not run without a frame")
	}
	if llmProvider.calls != 1 {
		t.Fatal("LLM still runs on empty text")
	}
	if scores.OCRConfidence != 0 {
		t.Fatalf("ocr confidence = %v", scores.OCRConfidence)
	}
}
