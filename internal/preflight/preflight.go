package preflight

import (
	"context"

	"flowsight/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	results = append(results, CheckOCR(ctx, cfg.OCR))

	if cfg.Vision.BaseURL != "" {
		results = append(results, CheckOllama(ctx, "Vision model", cfg.Vision.BaseURL, cfg.Vision.Model))
	}

	// The language model often shares the vision endpoint; a second probe
	// against the same base URL tells us nothing new.
	if cfg.LLM.BaseURL != "" && cfg.LLM.BaseURL != cfg.Vision.BaseURL {
		results = append(results, CheckOllama(ctx, "Language model", cfg.LLM.BaseURL, cfg.LLM.Model))
	}

	if cfg.Sync.Enabled {
		results = append(results, CheckDashboard(ctx, cfg.Sync))
	}

	return results
}
