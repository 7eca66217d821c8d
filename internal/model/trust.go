package model

// SourceAttribution is one cited source backing the generated plan.
type SourceAttribution struct {
	URL        string `json:"url"`
	Domain     string `json:"domain"`
	Title      string `json:"title,omitempty"`
	SourceType string `json:"source_type,omitempty"`
}

// ConfidenceBreakdown explains the overall confidence score.
type ConfidenceBreakdown struct {
	SourceCoverage       int `json:"source_coverage"`
	CostCompleteness     int `json:"cost_completeness"`
	ItinerarySpecificity int `json:"itinerary_specificity"`
}

// ConfidenceLevel buckets a 0-100 score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// PlanConfidence is derived trust metadata for a finished plan. It is
// recomputed in full every time a plan is finalized, never user-supplied.
type PlanConfidence struct {
	Score     int                 `json:"score"`
	Level     ConfidenceLevel     `json:"level"`
	Summary   string              `json:"summary"`
	Breakdown ConfidenceBreakdown `json:"breakdown"`
}
