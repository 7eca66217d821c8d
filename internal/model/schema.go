package model

// Schema pairs an extractable record type with its JSON Schema document.
// The extraction engine compiles the document for validation and walks it
// to build the placeholder example shown to the model.
type Schema struct {
	Name string
	JSON string
}

// InitialExtractionSchema describes InitialExtraction.
var InitialExtractionSchema = Schema{Name: "InitialExtraction", JSON: `{
  "type": "object",
  "properties": {
    "origin": {"type": ["string", "null"], "description": "Starting location / traveling from"},
    "destination": {"type": ["string", "null"], "description": "Travel destination / traveling to"},
    "month_or_season": {"type": ["string", "null"], "description": "Month or season of travel if mentioned"},
    "duration_days": {"type": ["integer", "null"], "description": "Trip duration in days if mentioned"},
    "solo_or_group": {"type": ["string", "null"], "description": "Solo or group travel if mentioned"},
    "budget": {"type": ["string", "null"], "description": "Budget level or amount if mentioned"},
    "interests": {"type": "array", "items": {"type": "string"}, "description": "Specific interests or activities mentioned"},
    "language_code": {"type": ["string", "null"], "description": "Detected ISO 639-1 language code of the user"}
  }
}`}

// TravelConstraintsSchema describes TravelConstraints.
var TravelConstraintsSchema = Schema{Name: "TravelConstraints", JSON: `{
  "type": "object",
  "required": ["origin", "destination"],
  "properties": {
    "origin": {"type": "string", "description": "Starting location / traveling from"},
    "destination": {"type": "string", "description": "Travel destination / traveling to"},
    "month_or_season": {"type": ["string", "null"], "description": "Month or season of travel"},
    "duration_days": {"type": ["integer", "null"], "description": "Total trip duration including travel"},
    "solo_or_group": {"type": ["string", "null"], "description": "Solo or group travel"},
    "budget": {"type": ["string", "null"], "description": "Budget level or range"},
    "interests": {"type": "array", "items": {"type": "string"}, "description": "Specific interests or activities the traveler wants"},
    "vibe": {"type": ["string", "null"], "description": "Requested vibe or aesthetic for the trip"}
  }
}`}

// RiskAssessmentSchema describes RiskAssessment.
var RiskAssessmentSchema = Schema{Name: "RiskAssessment", JSON: `{
  "type": "object",
  "required": ["season_weather", "route_accessibility", "altitude_health", "infrastructure", "overall_feasible", "friendly_summary"],
  "definitions": {
    "RiskLevel": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH"]}
  },
  "properties": {
    "season_weather": {"$ref": "#/definitions/RiskLevel", "description": "Risk from season and weather conditions"},
    "route_accessibility": {"$ref": "#/definitions/RiskLevel", "description": "Risk from route accessibility"},
    "altitude_health": {"$ref": "#/definitions/RiskLevel", "description": "Risk from altitude and health stress"},
    "infrastructure": {"$ref": "#/definitions/RiskLevel", "description": "Risk from infrastructure and connectivity"},
    "overall_feasible": {"type": "boolean", "description": "Whether the trip is feasible overall"},
    "friendly_summary": {"type": "string", "description": "Short conversational 2-4 sentence summary of what the traveler should know"},
    "warnings": {"type": "array", "items": {"type": "string"}, "description": "Specific warnings for the user"},
    "alternatives": {"type": "array", "items": {"type": "string"}, "description": "Safer alternatives if high risk"}
  }
}`}

// AssumptionsSchema describes Assumptions.
var AssumptionsSchema = Schema{Name: "Assumptions", JSON: `{
  "type": "object",
  "required": ["assumptions"],
  "properties": {
    "assumptions": {"type": "array", "items": {"type": "string"}, "description": "List of assumptions being made"},
    "uncertain_assumptions": {"type": "array", "items": {"type": "string"}, "description": "Assumptions that are uncertain and need confirmation"}
  }
}`}

// TravelPlanSchema describes TravelPlan.
var TravelPlanSchema = Schema{Name: "TravelPlan", JSON: `{
  "type": "object",
  "required": ["summary", "route", "days"],
  "definitions": {
    "ActivityCost": {
      "type": "object",
      "required": ["activity", "cost_estimate"],
      "properties": {
        "activity": {"type": "string", "description": "Activity name or description"},
        "cost_estimate": {"type": "string", "description": "Estimated cost, e.g. '$50', 'Free'"},
        "cost_notes": {"type": ["string", "null"], "description": "Notes about the cost"}
      }
    },
    "DayPlan": {
      "type": "object",
      "required": ["day", "title", "activities"],
      "properties": {
        "day": {"type": "integer", "description": "Day number"},
        "title": {"type": "string", "description": "Brief title for the day"},
        "activities": {"type": "array", "items": {"$ref": "#/definitions/ActivityCost"}, "description": "Activities for the day with cost estimates"},
        "reasoning": {"type": ["string", "null"], "description": "Why the day is structured this way"},
        "travel_time": {"type": ["string", "null"], "description": "Expected travel time if applicable"},
        "travel_cost": {"type": ["string", "null"], "description": "Cost of travel or transport for the day"},
        "accommodation": {"type": ["string", "null"], "description": "Where to stay"},
        "accommodation_cost": {"type": ["string", "null"], "description": "Cost of accommodation per night"},
        "meals_cost": {"type": ["string", "null"], "description": "Estimated cost for meals for the day"},
        "day_total": {"type": ["string", "null"], "description": "Total estimated cost for the day"},
        "notes": {"type": ["string", "null"], "description": "Additional notes or warnings"},
        "tips": {"type": "array", "items": {"type": "string"}, "description": "Practical tips for the day"}
      }
    },
    "BudgetBreakdown": {
      "type": "object",
      "required": ["flights", "accommodation", "local_transport", "meals", "activities", "miscellaneous", "total", "currency"],
      "properties": {
        "flights": {"type": "string", "description": "Estimated flight costs"},
        "accommodation": {"type": "string", "description": "Total accommodation costs"},
        "local_transport": {"type": "string", "description": "Local transportation costs"},
        "meals": {"type": "string", "description": "Total meal costs"},
        "activities": {"type": "string", "description": "Activities and entrance fees"},
        "miscellaneous": {"type": "string", "description": "Buffer for miscellaneous expenses"},
        "total": {"type": "string", "description": "Total estimated trip cost"},
        "currency": {"type": "string", "description": "Currency used for estimates"},
        "notes": {"type": ["string", "null"], "description": "Important notes about the budget"}
      }
    },
    "FlightOption": {
      "type": "object",
      "required": ["route", "price", "booking_url"],
      "properties": {
        "route": {"type": "string", "description": "Route summary for the flight"},
        "price": {"type": "string", "description": "Total price estimate"},
        "airline": {"type": ["string", "null"], "description": "Primary airline name if available"},
        "depart_time": {"type": ["string", "null"], "description": "Departure time if available"},
        "arrive_time": {"type": ["string", "null"], "description": "Arrival time if available"},
        "duration": {"type": ["string", "null"], "description": "Total flight duration if available"},
        "booking_url": {"type": "string", "description": "Direct booking link"},
        "notes": {"type": ["string", "null"], "description": "Notes such as baggage, layovers or fare class"}
      }
    },
    "LodgingOption": {
      "type": "object",
      "required": ["name", "price_per_night", "booking_url"],
      "properties": {
        "name": {"type": "string", "description": "Property name"},
        "location": {"type": ["string", "null"], "description": "Neighborhood or area"},
        "price_per_night": {"type": "string", "description": "Nightly price estimate"},
        "rating": {"type": ["string", "null"], "description": "Rating score if available"},
        "property_type": {"type": ["string", "null"], "description": "Hotel, hostel, guesthouse etc."},
        "booking_url": {"type": "string", "description": "Direct booking link"},
        "notes": {"type": ["string", "null"], "description": "Notes such as cancellation policy or room type"}
      }
    },
    "TrainOption": {
      "type": "object",
      "required": ["route", "price"],
      "properties": {
        "route": {"type": "string", "description": "Route summary for the train journey"},
        "class": {"type": ["string", "null"], "description": "Travel class, e.g. Sleeper, 3A"},
        "price": {"type": "string", "description": "Fare estimate"},
        "duration": {"type": ["string", "null"], "description": "Journey duration if available"},
        "booking_url": {"type": ["string", "null"], "description": "Booking link"},
        "notes": {"type": ["string", "null"], "description": "Notes about the journey"}
      }
    }
  },
  "properties": {
    "summary": {"type": "string", "description": "Brief summary of the trip"},
    "route": {"type": "string", "description": "The committed route"},
    "days": {"type": "array", "items": {"$ref": "#/definitions/DayPlan"}, "description": "Day-by-day itinerary"},
    "buffer_days": {"type": "integer", "description": "Number of buffer days included"},
    "acclimatization_notes": {"type": ["string", "null"], "description": "Acclimatization logic if applicable"},
    "flights": {"type": "array", "items": {"$ref": "#/definitions/FlightOption"}, "description": "Cheapest flight options with booking links"},
    "lodgings": {"type": "array", "items": {"$ref": "#/definitions/LodgingOption"}, "description": "Recommended stays with booking links"},
    "trains": {"type": "array", "items": {"$ref": "#/definitions/TrainOption"}, "description": "Rail options for domestic routes"},
    "budget_breakdown": {"$ref": "#/definitions/BudgetBreakdown", "description": "Detailed budget breakdown for the trip"},
    "general_tips": {"type": "array", "items": {"type": "string"}, "description": "General trip tips: visa, connectivity, etiquette, packing, safety"}
  }
}`}
