// Package trust attaches source attribution and confidence metadata to a
// finished travel plan. Everything here is deterministic: running the
// processor twice over the same plan and research text yields the same plan.
package trust

import (
	"regexp"
	"strings"

	"github.com/sells-group/trip-planner/internal/model"
)

var urlPattern = regexp.MustCompile(`https?://[^\s\])"'>,;]+`)

// recentBlocks bounds how far back in the research context we look for
// citations. Older blocks tend to describe superseded constraints.
const recentBlocks = 10

// ExtractSources pulls unique cited URLs out of accumulated research text,
// most recent block first, capped at limit.
func ExtractSources(searchResults []string, limit int) []model.SourceAttribution {
	if limit <= 0 {
		return nil
	}

	blocks := searchResults
	if len(blocks) > recentBlocks {
		blocks = blocks[len(blocks)-recentBlocks:]
	}

	seen := make(map[string]struct{})
	var sources []model.SourceAttribution
	for i := len(blocks) - 1; i >= 0; i-- {
		for _, raw := range urlPattern.FindAllString(blocks[i], -1) {
			normalized := strings.TrimRight(raw, ".,)")
			if _, ok := seen[normalized]; ok {
				continue
			}
			domain := hostOf(normalized)
			if domain == "" {
				continue
			}
			seen[normalized] = struct{}{}
			sources = append(sources, model.SourceAttribution{
				URL:        normalized,
				Domain:     domain,
				SourceType: inferSourceType(domain),
			})
			if len(sources) >= limit {
				return sources
			}
		}
	}
	return sources
}

func inferSourceType(domain string) string {
	lowered := strings.ToLower(domain)
	switch {
	case containsAny(lowered, "booking", "agoda", "airbnb", "expedia", "hotel"):
		return "lodging"
	case containsAny(lowered, "skyscanner", "kayak", "flight", "airline"):
		return "flight"
	case containsAny(lowered, "gov", "travel.state", "cdc", "who.int"):
		return "advisory"
	case containsAny(lowered, "weather", "met", "accuweather"):
		return "weather"
	case containsAny(lowered, "irctc", "rail", "train", "ixigo"):
		return "rail"
	default:
		return "general"
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
