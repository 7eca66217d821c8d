package model

// ActivityCost is a single activity with its cost estimate.
type ActivityCost struct {
	Activity     string `json:"activity"`
	CostEstimate string `json:"cost_estimate"`
	CostNotes    string `json:"cost_notes,omitempty"`
}

// DayPlan is the itinerary for a single day.
type DayPlan struct {
	Day               int            `json:"day"`
	Title             string         `json:"title"`
	Activities        []ActivityCost `json:"activities"`
	Reasoning         string         `json:"reasoning,omitempty"`
	TravelTime        string         `json:"travel_time,omitempty"`
	TravelCost        string         `json:"travel_cost,omitempty"`
	Accommodation     string         `json:"accommodation,omitempty"`
	AccommodationCost string         `json:"accommodation_cost,omitempty"`
	MealsCost         string         `json:"meals_cost,omitempty"`
	DayTotal          string         `json:"day_total,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	Tips              []string       `json:"tips,omitempty"`
}

// BudgetBreakdown itemizes the estimated trip cost.
type BudgetBreakdown struct {
	Flights        string `json:"flights"`
	Accommodation  string `json:"accommodation"`
	LocalTransport string `json:"local_transport"`
	Meals          string `json:"meals"`
	Activities     string `json:"activities"`
	Miscellaneous  string `json:"miscellaneous"`
	Total          string `json:"total"`
	Currency       string `json:"currency"`
	Notes          string `json:"notes,omitempty"`
}

// FlightOption is a candidate flight with a booking link.
type FlightOption struct {
	Route      string `json:"route"`
	Price      string `json:"price"`
	Airline    string `json:"airline,omitempty"`
	DepartTime string `json:"depart_time,omitempty"`
	ArriveTime string `json:"arrive_time,omitempty"`
	Duration   string `json:"duration,omitempty"`
	BookingURL string `json:"booking_url"`
	Notes      string `json:"notes,omitempty"`
}

// LodgingOption is a candidate stay with a booking link.
type LodgingOption struct {
	Name          string `json:"name"`
	Location      string `json:"location,omitempty"`
	PricePerNight string `json:"price_per_night"`
	Rating        string `json:"rating,omitempty"`
	PropertyType  string `json:"property_type,omitempty"`
	BookingURL    string `json:"booking_url"`
	Notes         string `json:"notes,omitempty"`
}

// TrainOption is a candidate rail journey. Fare figures come from fare
// benchmarks, never from an unverified specific service.
type TrainOption struct {
	Route      string `json:"route"`
	Class      string `json:"class,omitempty"`
	Price      string `json:"price"`
	Duration   string `json:"duration,omitempty"`
	BookingURL string `json:"booking_url,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// TravelPlan is the final structured itinerary artifact.
type TravelPlan struct {
	Summary              string           `json:"summary"`
	Route                string           `json:"route"`
	Days                 []DayPlan        `json:"days"`
	BufferDays           int              `json:"buffer_days,omitempty"`
	AcclimatizationNotes string           `json:"acclimatization_notes,omitempty"`
	Flights              []FlightOption   `json:"flights,omitempty"`
	Lodgings             []LodgingOption  `json:"lodgings,omitempty"`
	Trains               []TrainOption    `json:"trains,omitempty"`
	BudgetBreakdown      *BudgetBreakdown `json:"budget_breakdown,omitempty"`
	Confidence           *PlanConfidence  `json:"confidence,omitempty"`
	Sources              []SourceAttribution `json:"sources,omitempty"`
	GeneralTips          []string         `json:"general_tips,omitempty"`
}
