package model

// InitialExtraction holds everything extractable from the user's very
// first message. All fields are optional; empty means "not mentioned".
type InitialExtraction struct {
	Origin        string   `json:"origin,omitempty"`
	Destination   string   `json:"destination,omitempty"`
	MonthOrSeason string   `json:"month_or_season,omitempty"`
	DurationDays  int      `json:"duration_days,omitempty"`
	SoloOrGroup   string   `json:"solo_or_group,omitempty"`
	Budget        string   `json:"budget,omitempty"`
	Interests     []string `json:"interests,omitempty"`
	LanguageCode  string   `json:"language_code,omitempty"`
}

// TravelConstraints are the user's confirmed constraints after the
// clarification round. Origin and destination are always set.
type TravelConstraints struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	MonthOrSeason string   `json:"month_or_season,omitempty"`
	DurationDays  int      `json:"duration_days,omitempty"`
	SoloOrGroup   string   `json:"solo_or_group,omitempty"`
	Budget        string   `json:"budget,omitempty"`
	Interests     []string `json:"interests,omitempty"`
	Vibe          string   `json:"vibe,omitempty"`
}

// Assumptions are the premises the planner commits to before building an
// itinerary. Uncertain entries need explicit user confirmation.
type Assumptions struct {
	Assumptions          []string `json:"assumptions"`
	UncertainAssumptions []string `json:"uncertain_assumptions,omitempty"`
}
