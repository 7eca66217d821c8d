package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/trip-planner/pkg/websearch"
)

// searchHotelCosts researches nightly accommodation rates at the destination
// and formats the results into a context block for the planning prompt.
func searchHotelCosts(ctx context.Context, search websearch.Client, destination, dateContext, budget, preferences string, maxResults int) (string, error) {
	dateStr := dateContext
	if dateStr == "" {
		dateStr = fmt.Sprintf("%d", time.Now().Year())
	}

	accommodationType := "hotel"
	if strings.Contains(strings.ToLower(preferences), "hostel") {
		accommodationType = "hostel"
	}

	query := fmt.Sprintf("average %s prices in %s %s", accommodationType, destination, dateStr)

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

	header := fmt.Sprintf("Hotel/Accommodation Cost Estimates Research (%s):\n", destination)
	if budget != "" {
		header += fmt.Sprintf("(Context: User budget is %s, usually ~30%% is spent on accommodation)\n", budget)
	}
	return header + strings.Join(snippets, "\n"), nil
}
