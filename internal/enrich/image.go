package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sells-group/trip-planner/pkg/websearch"
)

// Image is a destination image candidate for the frontend carousel.
type Image struct {
	Title  string `json:"title"`
	URL    string `json:"image_url"`
	Source string `json:"source"`
}

// titleJunkSuffixes are boilerplate suffixes stripped from image titles.
var titleJunkSuffixes = []string{
	" — Wikipédia",
	" - Wikipedia",
	" | Britannica",
	" - Tripadvisor",
	" - Holidify",
}

// searchDestinationImages finds landmark images for a destination, capping
// results per domain so the carousel shows variety.
func searchDestinationImages(ctx context.Context, search websearch.Client, destination string, numImages int) ([]Image, error) {
	query := fmt.Sprintf("%s famous landmarks tourist places", destination)

	results, err := search.Search(ctx, query, numImages*2+5)
	if err != nil {
		return nil, err
	}

	var images []Image
	domainCounts := map[string]int{}
	for _, r := range results {
		if r.URL == "" {
			continue
		}

		domain := extractDomain(r.URL)
		if domainCounts[domain] >= 2 {
			continue
		}
		domainCounts[domain]++

		title := r.Title
		for _, suffix := range titleJunkSuffixes {
			title = strings.TrimSuffix(title, suffix)
		}

		images = append(images, Image{
			Title:  strings.TrimSpace(title),
			URL:    r.URL,
			Source: r.URL,
		})
		if len(images) >= numImages {
			break
		}
	}

	return images, nil
}

// extractDomain returns the lowercase host of a URL without the www prefix.
func extractDomain(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}
