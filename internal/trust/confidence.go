package trust

import (
	"fmt"

	"github.com/sells-group/trip-planner/internal/model"
)

// Weights control how the three sub-scores blend into the overall score and
// where the LOW/MEDIUM/HIGH boundaries sit.
type Weights struct {
	SourceCoverage       float64
	CostCompleteness     float64
	ItinerarySpecificity float64
	MediumThreshold      int
	HighThreshold        int
}

// DefaultWeights favors cost completeness slightly: a plan with unpriced
// days is harder to act on than one with few citations.
func DefaultWeights() Weights {
	return Weights{
		SourceCoverage:       0.35,
		CostCompleteness:     0.40,
		ItinerarySpecificity: 0.25,
		MediumThreshold:      60,
		HighThreshold:        80,
	}
}

func scoreSourceCoverage(sourceCount int) int {
	if sourceCount <= 0 {
		return 25
	}
	return min(100, 30+sourceCount*12)
}

func scoreCostCompleteness(plan *model.TravelPlan) int {
	totalActivities := 0
	activitiesWithCost := 0
	for _, day := range plan.Days {
		for _, activity := range day.Activities {
			totalActivities++
			if activity.CostEstimate != "" {
				activitiesWithCost++
			}
		}
	}

	activityScore := 40
	if totalActivities > 0 {
		activityScore = activitiesWithCost * 100 / totalActivities
	}

	dayTotalScore := 40
	if len(plan.Days) > 0 {
		daysWithTotals := 0
		for _, day := range plan.Days {
			if day.DayTotal != "" {
				daysWithTotals++
			}
		}
		dayTotalScore = daysWithTotals * 100 / len(plan.Days)
	}

	budgetScore := 50
	if plan.BudgetBreakdown != nil {
		budgetScore = 100
	}

	combined := int(float64(activityScore)*0.55 + float64(dayTotalScore)*0.25 + float64(budgetScore)*0.20)
	return clampScore(combined)
}

func scoreItinerarySpecificity(plan *model.TravelPlan) int {
	if len(plan.Days) == 0 {
		return 30
	}

	withTravel, withStay, withNotesOrTips := 0, 0, 0
	for _, day := range plan.Days {
		if day.TravelTime != "" || day.TravelCost != "" {
			withTravel++
		}
		if day.Accommodation != "" {
			withStay++
		}
		if day.Notes != "" || len(day.Tips) > 0 {
			withNotesOrTips++
		}
	}

	total := len(plan.Days)
	travelScore := withTravel * 100 / total
	stayScore := withStay * 100 / total
	tipsScore := withNotesOrTips * 100 / total
	bookingScore := 40
	if len(plan.Flights) > 0 || len(plan.Lodgings) > 0 {
		bookingScore = 100
	}

	combined := int(float64(travelScore)*0.30 + float64(stayScore)*0.25 +
		float64(tipsScore)*0.25 + float64(bookingScore)*0.20)
	return clampScore(combined)
}

// BuildPlanConfidence scores a finished plan on source coverage, cost
// completeness, and itinerary specificity.
func BuildPlanConfidence(plan *model.TravelPlan, sourceCount int, weights Weights) *model.PlanConfidence {
	sourceCoverage := scoreSourceCoverage(sourceCount)
	costCompleteness := scoreCostCompleteness(plan)
	itinerarySpecificity := scoreItinerarySpecificity(plan)

	score := clampScore(int(
		float64(sourceCoverage)*weights.SourceCoverage +
			float64(costCompleteness)*weights.CostCompleteness +
			float64(itinerarySpecificity)*weights.ItinerarySpecificity,
	))

	level := model.ConfidenceLow
	switch {
	case score >= weights.HighThreshold:
		level = model.ConfidenceHigh
	case score >= weights.MediumThreshold:
		level = model.ConfidenceMedium
	}

	return &model.PlanConfidence{
		Score:   score,
		Level:   level,
		Summary: fmt.Sprintf("%s confidence (%d/100) based on source coverage, cost completeness, and itinerary specificity.", level, score),
		Breakdown: model.ConfidenceBreakdown{
			SourceCoverage:       sourceCoverage,
			CostCompleteness:     costCompleteness,
			ItinerarySpecificity: itinerarySpecificity,
		},
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
