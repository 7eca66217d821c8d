package enrich

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/sells-group/trip-planner/pkg/websearch"
)

// TrainEstimate summarizes rail fare research for a domestic route.
type TrainEstimate struct {
	Summary        string
	WithinBudget   bool
	EstimatedCost  float64 // 0 when no fares were found
	IsIndianRoute  bool
	TrustedSources int
	SourcesScanned int
}

var (
	rupeePrefixPattern = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr)\s*(\d[\d,]*(?:\.\d+)?)`)
	rupeeSuffixPattern = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(?:₹|rs\.?|inr)`)
	trainNumberPattern = regexp.MustCompile(`\b\d{5}\b`)
	multiSpacePattern  = regexp.MustCompile(`\s+`)

	lakhPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:lakh|lac|lakhs|lacs)\b`)
	crorePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:crore|cr)\b`)
	kPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*k\b`)
	digitPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// trustedTrainDomains are railway fare sources treated as authoritative.
var trustedTrainDomains = []string{
	"irctc.co.in",
	"indianrail.gov.in",
	"ixigo.com",
	"confirmtkt.com",
	"trainman.in",
	"redbus.in",
	"railmitra.com",
}

// indianCities covers major cities, tourist towns and airport codes used to
// recognize domestic routes.
var indianCities = []string{
	"delhi", "mumbai", "kolkata", "chennai", "bangalore", "bengaluru",
	"hyderabad", "pune", "ahmedabad", "jaipur", "lucknow", "kanpur",
	"nagpur", "indore", "thane", "bhopal", "visakhapatnam", "pimpri",
	"patna", "vadodara", "ghaziabad", "ludhiana", "agra", "nashik",
	"faridabad", "meerut", "rajkot", "kalyan", "vasai", "varanasi",
	"srinagar", "aurangabad", "dhanbad", "amritsar", "navi mumbai",
	"allahabad", "prayagraj", "ranchi", "coimbatore", "jabalpur",
	"gwalior", "vijayawada", "jodhpur", "madurai", "raipur", "kota",
	"guwahati", "chandigarh", "solapur", "hubli", "tiruchirappalli",
	"mysore", "tiruppur", "gurgaon", "gurugram", "aligarh", "jalandhar",
	"bareilly", "dehradun", "shimla", "manali", "goa", "udaipur",
	"jaisalmer", "pushkar", "ajmer", "bikaner", "munnar", "kochi",
	"cochin", "alleppey", "kovalam", "trivandrum", "thiruvananthapuram",
	"kozhikode", "calicut", "darjeeling", "gangtok", "shillong",
	"kohima", "imphal", "leh", "ladakh", "gulmarg", "pahalgam",
	"rishikesh", "haridwar", "mussoorie", "khajuraho", "orchha",
	"ujjain", "puri", "bhubaneswar", "konark", "cuttack", "tanjore",
	"thanjavur", "kanyakumari", "rameswaram", "mahabalipuram",
	"pondicherry", "puducherry", "hampi", "mangalore", "udupi",
	// Airport codes
	"bom", "del", "maa", "ccu", "hyd", "blr", "pnq", "amd", "jai",
	"lko", "cok", "trv", "ccj", "ixc",
}

// IsIndianCity reports whether a location is likely in India.
func IsIndianCity(location string) bool {
	if location == "" {
		return false
	}
	lower := strings.ToLower(location)
	for _, city := range indianCities {
		if strings.Contains(lower, city) {
			return true
		}
	}
	for _, indicator := range []string{"india", "bharat", "hindustan"} {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// IsIndianRoute reports whether both endpoints are Indian locations.
func IsIndianRoute(origin, destination string) bool {
	return IsIndianCity(origin) && IsIndianCity(destination)
}

// TrainAssumptionNote returns an assumption-phase note about rail options,
// or "" when the route does not qualify.
func TrainAssumptionNote(origin, destination, budget string) string {
	if !IsIndianRoute(origin, destination) {
		return ""
	}
	note := fmt.Sprintf(
		"For travel between %s and %s within India, considering Indian Railways train options as an alternative to flights",
		origin, destination)
	if budget != "" {
		note += fmt.Sprintf(", with budget constraint of %s", budget)
	}
	return note
}

// ScrubTrainNumbers removes 5-digit train numbers from text so plans never
// cite specific unverified trains, and collapses leftover whitespace.
func ScrubTrainNumbers(text string) string {
	cleaned := trainNumberPattern.ReplaceAllString(text, "")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	return strings.Trim(cleaned, " -:|")
}

// isTrustedTrainSource reports whether the URL's domain is an authoritative
// railway fare source (exact match or subdomain).
func isTrustedTrainSource(rawURL string) bool {
	domain := extractDomain(rawURL)
	for _, trusted := range trustedTrainDomains {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			return true
		}
	}
	return false
}

// ExtractNumericPrice parses a price string into a numeric amount, honoring
// Indian notation: lakh multiplies by 100,000, crore by 10,000,000, and a
// trailing k by 1,000.
func ExtractNumericPrice(priceStr string) (float64, bool) {
	if priceStr == "" {
		return 0, false
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(priceStr), ",", ""))

	if m := lakhPattern.FindStringSubmatch(cleaned); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v * 100_000, true
		}
	}
	if m := crorePattern.FindStringSubmatch(cleaned); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v * 10_000_000, true
		}
	}
	if m := kPattern.FindStringSubmatch(cleaned); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v * 1_000, true
		}
	}
	if m := digitPattern.FindString(cleaned); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}

// extractRupeePrices pulls plausible rupee fares (50 to 100,000) from text,
// preserving first-seen order.
func extractRupeePrices(text string) []float64 {
	working := strings.ReplaceAll(text, ",", " ")
	var prices []float64
	for _, pattern := range []*regexp.Regexp{rupeePrefixPattern, rupeeSuffixPattern} {
		for _, m := range pattern.FindAllStringSubmatch(working, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if v >= 50 && v <= 100_000 {
				prices = append(prices, v)
			}
		}
	}
	return lo.Uniq(prices)
}

// isWithinBudget checks the fare against the tolerated fraction of the
// stated trip budget. Unknown fares or unparseable budgets pass.
func isWithinBudget(trainCost float64, budget string, tolerance float64) bool {
	if trainCost <= 0 || budget == "" {
		return true
	}
	budgetAmount, ok := ExtractNumericPrice(budget)
	if !ok {
		return true
	}
	return trainCost <= budgetAmount*tolerance
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

type trainQuery struct {
	Origin      string
	Destination string
	DateContext string
	Budget      string
	Class       string
	Tolerance   float64
}

type trainCandidate struct {
	title   string
	body    string
	url     string
	domain  string
	trusted bool
	prices  []float64
}

// searchTrainCosts researches Indian Railways fares for the route and
// produces a fare estimate plus a summary block for the planning prompt.
func searchTrainCosts(ctx context.Context, search websearch.Client, q trainQuery) (*TrainEstimate, error) {
	estimate := &TrainEstimate{
		WithinBudget:  true,
		IsIndianRoute: IsIndianRoute(q.Origin, q.Destination),
	}
	if !estimate.IsIndianRoute {
		return estimate, nil
	}

	dateStr := q.DateContext
	if dateStr == "" {
		dateStr = fmt.Sprintf("%d", time.Now().Year())
	}
	classStr := ""
	if q.Class != "" {
		classStr = q.Class + " "
	}
	query := fmt.Sprintf("Indian Railways %s to %s train fare %s%s IRCTC",
		q.Origin, q.Destination, classStr, dateStr)

	results, err := search.Search(ctx, query, 8)
	if err != nil {
		return nil, err
	}
	estimate.SourcesScanned = len(results)

	if len(results) == 0 {
		estimate.Summary = fmt.Sprintf("No train data found for %s -> %s", q.Origin, q.Destination)
		return estimate, nil
	}

	candidates := make([]trainCandidate, 0, len(results))
	for _, r := range results {
		combined := strings.TrimSpace(r.Title + " " + r.Snippet)
		candidates = append(candidates, trainCandidate{
			title:   ScrubTrainNumbers(r.Title),
			body:    ScrubTrainNumbers(r.Snippet),
			url:     r.URL,
			domain:  extractDomain(r.URL),
			trusted: isTrustedTrainSource(r.URL),
			prices:  extractRupeePrices(combined),
		})
	}

	trusted := lo.Filter(candidates, func(c trainCandidate, _ int) bool { return c.trusted })
	selected := trusted
	if len(selected) == 0 {
		selected = candidates
	}
	estimate.TrustedSources = len(trusted)

	var fares []float64
	for _, c := range selected {
		fares = append(fares, c.prices...)
	}
	if len(fares) == 0 {
		for _, c := range candidates {
			fares = append(fares, c.prices...)
		}
	}

	if len(fares) > 0 {
		estimate.EstimatedCost = median(fares)
	}
	tolerance := q.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultConfig().BudgetTolerance
	}
	estimate.WithinBudget = isWithinBudget(estimate.EstimatedCost, q.Budget, tolerance)

	var snippets []string
	for _, c := range selected {
		if len(snippets) >= 4 {
			break
		}
		source := c.domain
		if source == "" {
			source = "search result"
		}
		snippet := c.body
		if snippet == "" {
			snippet = c.title
		}
		if snippet == "" {
			continue
		}
		if len(snippet) > 220 {
			snippet = strings.TrimRight(snippet[:220], " ")
		}

		fareHint := ""
		if len(c.prices) > 0 {
			low := lo.Min(c.prices)
			high := lo.Max(c.prices)
			if low == high {
				fareHint = fmt.Sprintf(" (observed fare: ₹%.0f)", low)
			} else {
				fareHint = fmt.Sprintf(" (observed fares: ₹%.0f-₹%.0f)", low, high)
			}
		}
		urlHint := ""
		if c.url != "" {
			urlHint = fmt.Sprintf(" (%s)", c.url)
		}
		snippets = append(snippets, fmt.Sprintf("- %s: %s%s%s", source, snippet, fareHint, urlHint))
	}

	trustNote := "Limited trusted railway sources; verify options on IRCTC before booking."
	if len(trusted) > 0 {
		trustNote = "Trusted railway sources found."
	}

	budgetNote := ""
	if estimate.EstimatedCost > 0 && !estimate.WithinBudget {
		budgetNote = fmt.Sprintf(
			"\n\nBudget Alert: Estimated train fare around ₹%.0f may exceed %.0f%% of your stated budget.",
			estimate.EstimatedCost, tolerance*100)
	}

	snippetBlock := "No reliable fare snippets found."
	if len(snippets) > 0 {
		snippetBlock = strings.Join(snippets, "\n")
	}

	estimate.Summary = fmt.Sprintf(
		"Train Cost Estimates (%s -> %s - Indian Railways):\n%s\n\n%s\nUse these as fare benchmarks; do not assume a specific train number unless verified on official sources.%s",
		q.Origin, q.Destination, snippetBlock, trustNote, budgetNote)

	return estimate, nil
}
