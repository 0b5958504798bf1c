package models

import "time"

// DirectiveKind identifies one transformation from the closed catalog.
// The catalog is fixed at build time; Apply rejects unknown kinds.
type DirectiveKind string

const (
	DirectiveAddPerformanceMarkers DirectiveKind = "add_performance_markers"
	DirectiveAddLogging            DirectiveKind = "add_logging"
	DirectiveCodeCleanup           DirectiveKind = "code_cleanup"
)

// Valid reports whether the kind is part of the catalog.
func (k DirectiveKind) Valid() bool {
	switch k {
	case DirectiveAddPerformanceMarkers, DirectiveAddLogging, DirectiveCodeCleanup:
		return true
	}
	return false
}

// Risk levels for directives. Every directive in the current catalog is low
// risk.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Directive is one named transformation inside a plan.
type Directive struct {
	Kind        DirectiveKind `json:"type"`
	Description string        `json:"description"`
	Risk        string        `json:"risk"`
}

// Plan is an ordered list of directives synthesized from an objective and an
// analysis report. Plans are deterministic given the same inputs.
type Plan struct {
	Objective     string      `json:"objective"`
	FilePath      string      `json:"file_path"`
	Directives    []Directive `json:"modifications"`
	EstimatedTime string      `json:"estimated_time"`
	SourceDigest  string      `json:"source_digest,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}
