package model

// RiskLevel is an ordinal risk rating for one feasibility dimension.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskAssessment is the structured feasibility verdict for a trip.
type RiskAssessment struct {
	SeasonWeather      RiskLevel `json:"season_weather"`
	RouteAccessibility RiskLevel `json:"route_accessibility"`
	AltitudeHealth     RiskLevel `json:"altitude_health"`
	Infrastructure     RiskLevel `json:"infrastructure"`
	OverallFeasible    bool      `json:"overall_feasible"`
	FriendlySummary    string    `json:"friendly_summary"`
	Warnings           []string  `json:"warnings,omitempty"`
	Alternatives       []string  `json:"alternatives,omitempty"`
}

// HasHighRisk reports whether any sub-score is HIGH.
func (r *RiskAssessment) HasHighRisk() bool {
	if r == nil {
		return false
	}
	for _, level := range []RiskLevel{
		r.SeasonWeather, r.RouteAccessibility, r.AltitudeHealth, r.Infrastructure,
	} {
		if level == RiskHigh {
			return true
		}
	}
	return false
}
