package trust

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sells-group/trip-planner/internal/model"
)

// badURLTokens mark links that are placeholders or otherwise unusable; they
// never survive into notes.
var badURLTokens = []string{
	"example.com",
	"localhost",
	"127.0.0.1",
	"<",
	">",
	"{",
	"}",
	"...",
	"notfound",
	"n/a",
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}

func isHTTPURL(raw string) bool {
	if raw == "" {
		return false
	}
	lowered := strings.ToLower(raw)
	for _, token := range badURLTokens {
		if strings.Contains(lowered, token) {
			return false
		}
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func flightSearchDeeplink(route, airline string) string {
	query := joinQuery(route, airline, "flight")
	return "https://www.google.com/travel/flights?q=" + url.QueryEscape(query)
}

func staySearchDeeplink(name, location, destination string) string {
	query := joinQuery(name, location, destination, "hotel booking")
	return "https://www.booking.com/searchresults.html?ss=" + url.QueryEscape(query)
}

func trainSearchDeeplink(route, class string) string {
	query := joinQuery(route, class, "train fare IRCTC")
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

func joinQuery(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, " ")
}

// normalizeBookingLinks swaps model-provided booking URLs for search
// deeplinks that cannot 404. A usable original link is preserved in notes.
func normalizeBookingLinks(plan *model.TravelPlan, defaultDestination string) {
	for i := range plan.Flights {
		flight := &plan.Flights[i]
		deeplink := flightSearchDeeplink(flight.Route, flight.Airline)
		original := strings.TrimSpace(flight.BookingURL)
		if isHTTPURL(original) && original != deeplink && flight.Notes == "" {
			flight.Notes = fmt.Sprintf("Original link provided: %s", original)
		}
		flight.BookingURL = deeplink
	}

	for i := range plan.Lodgings {
		stay := &plan.Lodgings[i]
		deeplink := staySearchDeeplink(stay.Name, stay.Location, defaultDestination)
		original := strings.TrimSpace(stay.BookingURL)
		if isHTTPURL(original) && original != deeplink && stay.Notes == "" {
			stay.Notes = fmt.Sprintf("Original link provided: %s", original)
		}
		stay.BookingURL = deeplink
	}

	for i := range plan.Trains {
		train := &plan.Trains[i]
		deeplink := trainSearchDeeplink(train.Route, train.Class)
		original := strings.TrimSpace(train.BookingURL)
		if isHTTPURL(original) && original != deeplink && train.Notes == "" {
			train.Notes = fmt.Sprintf("Original link provided: %s", original)
		}
		train.BookingURL = deeplink
	}
}
