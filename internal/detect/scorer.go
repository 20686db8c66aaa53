package detect

import (
	"flowsight/internal/services/llm"
	"flowsight/internal/services/vision"
)

// Consensus weights. Each weight contributes to the denominator only when its
// source produced a result, so missing providers redistribute trust instead
// of dragging the score down.
const (
	ruleWeight   = 0.4
	visionWeight = 0.3
	llmWeight    = 0.3

	visionErrorTerm   = 0.8
	visionStackTerm   = 0.6
	visionLoadingTerm = 0.4

	// ocrTrustFloor keeps low OCR confidence from fully zeroing an
	// otherwise-strong rule or language-model signal.
	ocrTrustFloor = 0.5

	// DefaultActivationThreshold is the consensus score a detection must
	// exceed before a blocker is materialized.
	DefaultActivationThreshold = 0.5
)

// VisionSignal is the tagged vision outcome: Available distinguishes "the
// classifier ran" from "the provider was skipped or failed".
type VisionSignal struct {
	Available bool
	Verdict   vision.Result
}

// LLMSignal carries the language-model judgment. Fallback marks the
// conservative default used when the provider failed.
type LLMSignal struct {
	Fallback bool
	Analysis llm.Analysis
}

// SignalScores gathers every signal produced during one detection attempt.
// It lives only for the duration of a single detection call.
type SignalScores struct {
	Rule          MatchResult
	Vision        VisionSignal
	LLM           LLMSignal
	OCRText       string
	OCRConfidence float64
}

// Score folds the collected signals into one consensus confidence in [0, 1].
func Score(scores SignalScores) float64 {
	var sum, weights float64

	if scores.Rule.Detected {
		sum += scores.Rule.Confidence * ruleWeight
		weights += ruleWeight
	}

	if scores.Vision.Available {
		var term float64
		if scores.Vision.Verdict.HasError {
			term += visionErrorTerm
		}
		if scores.Vision.Verdict.HasStackTrace {
			term += visionStackTerm
		}
		if scores.Vision.Verdict.HasLoadingIndicator {
			term += visionLoadingTerm
		}
		sum += term * visionWeight
		weights += visionWeight
	}

	// The LLM path always yields a result, real or fallback.
	sum += scores.LLM.Analysis.Confidence * llmWeight
	weights += llmWeight

	trust := scores.OCRConfidence
	if trust < ocrTrustFloor {
		trust = ocrTrustFloor
	}

	final := (sum / weights) * trust
	if final > 1 {
		final = 1
	}
	if final < 0 {
		final = 0
	}
	return final
}
