package detect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flowsight/internal/logging"
	"flowsight/internal/services/llm"
	"flowsight/internal/services/ocr"
	"flowsight/internal/services/vision"
)

// Provider contracts consumed by the orchestrator. Concrete implementations
// live under internal/services; tests substitute fakes.
type (
	OCRProvider interface {
		Extract(ctx context.Context, image []byte) (ocr.Result, error)
	}
	VisionProvider interface {
		Analyze(ctx context.Context, image []byte) (vision.Result, error)
	}
	LLMProvider interface {
		AnalyzeBlocker(ctx context.Context, req llm.Request) (llm.Analysis, error)
	}
)

const (
	defaultOCRTimeout    = 30 * time.Second
	defaultVisionTimeout = 60 * time.Second
	defaultLLMTimeout    = 30 * time.Second
	defaultOCRGate       = 0.7
)

// llmFallback is the conservative judgment used when the language model is
// unreachable or returns garbage.
func llmFallback() llm.Analysis {
	return llm.Analysis{Category: string(CategoryOther), Severity: string(SeverityLow), Confidence: 0.3}
}

// Context carries the activity metadata for one detection attempt.
type Context struct {
	WindowTitle        string
	ActivityDurationMs int64
	RecentCategories   []string
}

// Orchestrator invokes the analysis providers with independent failure
// handling and folds their outputs into SignalScores. Provider failures
// degrade the result; they never abort a detection.
type Orchestrator struct {
	ocr     OCRProvider
	vision  VisionProvider
	llm     LLMProvider
	matcher *RuleMatcher
	logger  *slog.Logger

	ocrTimeout    time.Duration
	visionTimeout time.Duration
	llmTimeout    time.Duration
	// ocrGate skips vision when OCR confidence meets or exceeds it.
	ocrGate float64
}

// OrchestratorOption configures optional orchestrator behavior.
type OrchestratorOption func(*Orchestrator)

// WithTimeouts overrides the per-provider timeouts. Zero values keep the
// defaults.
func WithTimeouts(ocrTimeout, visionTimeout, llmTimeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if ocrTimeout > 0 {
			o.ocrTimeout = ocrTimeout
		}
		if visionTimeout > 0 {
			o.visionTimeout = visionTimeout
		}
		if llmTimeout > 0 {
			o.llmTimeout = llmTimeout
		}
	}
}

// WithOCRGate overrides the OCR confidence above which vision is skipped.
func WithOCRGate(gate float64) OrchestratorOption {
	return func(o *Orchestrator) {
		if gate > 0 {
			o.ocrGate = gate
		}
	}
}

// NewOrchestrator wires the providers together. The vision provider may be
// nil: vision is optional and its absence is a valid "not ready" state.
func NewOrchestrator(ocrProvider OCRProvider, visionProvider VisionProvider, llmProvider LLMProvider, matcher *RuleMatcher, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		ocr:           ocrProvider,
		vision:        visionProvider,
		llm:           llmProvider,
		matcher:       matcher,
		logger:        logger,
		ocrTimeout:    defaultOCRTimeout,
		visionTimeout: defaultVisionTimeout,
		llmTimeout:    defaultLLMTimeout,
		ocrGate:       defaultOCRGate,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProviderAvailability reports which analysis providers were configured.
func (o *Orchestrator) ProviderAvailability() (ocrReady, visionReady, llmReady bool) {
	return o.ocr != nil, o.vision != nil, o.llm != nil
}

// Analyze runs OCR first, then the rule matcher, vision, and language model
// concurrently on its output. Every branch has its own timeout and fallback;
// a failure in one never cancels the others.
func (o *Orchestrator) Analyze(ctx context.Context, frame []byte, detectCtx Context) SignalScores {
	scores := SignalScores{
		LLM: LLMSignal{Fallback: true, Analysis: llmFallback()},
	}

	ocrResult := o.runOCR(ctx, frame)
	scores.OCRText = ocrResult.Text
	scores.OCRConfidence = ocrResult.Confidence

	var wg sync.WaitGroup

	if o.vision != nil && len(frame) > 0 && ocrResult.Confidence < o.ocrGate {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scores.Vision = o.runVision(ctx, frame)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		scores.LLM = o.runLLM(ctx, ocrResult.Text, detectCtx)
	}()

	if o.matcher != nil {
		scores.Rule = o.matcher.Match(ocrResult.Text, detectCtx.ActivityDurationMs, detectCtx.WindowTitle)
	}

	wg.Wait()
	return scores
}

func (o *Orchestrator) runOCR(ctx context.Context, frame []byte) ocr.Result {
	if o.ocr == nil || len(frame) == 0 {
		return ocr.Result{}
	}
	callCtx, cancel := context.WithTimeout(ctx, o.ocrTimeout)
	defer cancel()

	result, err := o.ocr.Extract(callCtx, frame)
	if err != nil {
		o.logger.Warn("ocr extraction failed, continuing degraded", logging.Error(err))
		return ocr.Result{}
	}
	return result
}

func (o *Orchestrator) runVision(ctx context.Context, frame []byte) VisionSignal {
	callCtx, cancel := context.WithTimeout(ctx, o.visionTimeout)
	defer cancel()

	verdict, err := o.vision.Analyze(callCtx, frame)
	if err != nil {
		o.logger.Warn("vision analysis failed, treating as no signal", logging.Error(err))
		return VisionSignal{}
	}
	return VisionSignal{Available: true, Verdict: verdict}
}

func (o *Orchestrator) runLLM(ctx context.Context, ocrText string, detectCtx Context) LLMSignal {
	if o.llm == nil {
		return LLMSignal{Fallback: true, Analysis: llmFallback()}
	}
	callCtx, cancel := context.WithTimeout(ctx, o.llmTimeout)
	defer cancel()

	analysis, err := o.llm.AnalyzeBlocker(callCtx, llm.Request{
		OCRText:            ocrText,
		WindowName:         detectCtx.WindowTitle,
		ActivityDurationMs: detectCtx.ActivityDurationMs,
		RecentCategories:   detectCtx.RecentCategories,
	})
	if err != nil {
		o.logger.Warn("llm analysis failed, using fallback", logging.Error(err))
		return LLMSignal{Fallback: true, Analysis: llmFallback()}
	}
	return LLMSignal{Analysis: analysis}
}
