package trust

import (
	"go.uber.org/zap"

	"github.com/sells-group/trip-planner/internal/model"
)

// Processor applies trust metadata to finished plans.
type Processor struct {
	maxSources int
	weights    Weights
}

// NewProcessor builds a Processor. maxSources <= 0 falls back to 8.
func NewProcessor(maxSources int, weights Weights) *Processor {
	if maxSources <= 0 {
		maxSources = 8
	}
	return &Processor{maxSources: maxSources, weights: weights}
}

// Enrich normalizes booking links, sanitizes rail entries, attaches cited
// sources from the research context, and computes the confidence score.
// Idempotent: re-running it over its own output changes nothing.
func (p *Processor) Enrich(plan *model.TravelPlan, searchResults []string, defaultDestination string) *model.TravelPlan {
	if plan == nil {
		return nil
	}

	sanitizeTrains(plan)
	normalizeBookingLinks(plan, defaultDestination)

	if len(plan.Sources) == 0 {
		plan.Sources = ExtractSources(searchResults, p.maxSources)
	}

	plan.Confidence = BuildPlanConfidence(plan, len(plan.Sources), p.weights)

	zap.L().Debug("trust metadata attached",
		zap.Int("sources", len(plan.Sources)),
		zap.Int("confidence", plan.Confidence.Score),
		zap.String("level", string(plan.Confidence.Level)),
	)
	return plan
}
