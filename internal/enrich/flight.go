package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/trip-planner/pkg/websearch"
)

// searchFlightCosts researches round-trip fares for the route and formats
// the results into a context block for the planning prompt.
func searchFlightCosts(ctx context.Context, search websearch.Client, origin, destination, dateContext string, maxResults int) (string, error) {
	dateStr := dateContext
	if dateStr == "" {
		dateStr = fmt.Sprintf("%d", time.Now().Year())
	}
	query := fmt.Sprintf("round trip flight cost from %s to %s %s price", origin, destination, dateStr)

	results, err := search.Search(ctx, query, maxResults)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	var snippets []string
	for _, r := range results {
		snippets = append(snippets, fmt.Sprintf("- %s: %s", r.Title, r.Snippet))
	}

	return fmt.Sprintf("Flight Cost Estimates Research (%s -> %s):\n%s",
		origin, destination, strings.Join(snippets, "\n")), nil
}
