package detect

import (
	"strings"
	"time"
	"unicode/utf8"

	"flowsight/internal/services/vision"
)

// Category classifies a blocker into the closed set of known blocker kinds.
type Category string

const (
	CategoryBuildError         Category = "build-error"
	CategoryTimeout            Category = "timeout"
	CategoryCircularDependency Category = "circular-dependency"
	CategoryPermission         Category = "permission"
	CategoryResourceExhaustion Category = "resource-exhaustion"
	// CategoryOther is reserved for language-model fallbacks; the signature
	// catalog never emits it.
	CategoryOther Category = "other"
)

var allCategories = []Category{
	CategoryBuildError,
	CategoryTimeout,
	CategoryCircularDependency,
	CategoryPermission,
	CategoryResourceExhaustion,
	CategoryOther,
}

// ParseCategory maps free-form provider output onto the closed category set,
// defaulting to CategoryOther.
func ParseCategory(value string) Category {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, category := range allCategories {
		if normalized == string(category) {
			return category
		}
	}
	return CategoryOther
}

// Severity grades how urgently a blocker needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity maps free-form provider output onto the severity scale,
// defaulting to SeverityLow.
func ParseSeverity(value string) Severity {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(SeverityMedium):
		return SeverityMedium
	case string(SeverityHigh):
		return SeverityHigh
	case string(SeverityCritical):
		return SeverityCritical
	default:
		return SeverityLow
	}
}

// Snapshot preserves the context a blocker was detected in.
type Snapshot struct {
	WindowName string         `json:"window_name"`
	OCRText    string         `json:"ocr_text"`
	Vision     *vision.Result `json:"vision,omitempty"`
}

// Blocker is the durable record asserting the developer is likely stuck.
// Instances are owned by the registry; consumers receive copies and mutate
// only through the registry's resolve operation.
type Blocker struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	Category           Category  `json:"category"`
	Severity           Severity  `json:"severity"`
	Description        string    `json:"description"`
	Confidence         float64   `json:"confidence"`
	Signals            []string  `json:"signals"`
	SuggestedAction    string    `json:"suggested_action"`
	ActivityDurationMs int64     `json:"activity_duration_ms"`
	Resolved           bool      `json:"resolved"`
	Context            Snapshot  `json:"context"`
}

// snapshotTextLimit bounds how much OCR text a blocker snapshot retains.
const snapshotTextLimit = 500

// TruncateOCRText trims OCR text to the snapshot retention limit. The cut
// backs up to a rune boundary so the snapshot never holds invalid UTF-8.
func TruncateOCRText(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= snapshotTextLimit {
		return text
	}
	cut := snapshotTextLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
