package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/trip-planner/internal/extract"
	"github.com/sells-group/trip-planner/internal/model"
	"github.com/sells-group/trip-planner/pkg/llm"
)

// enrichmentContext drains the background lookups into prompt text. Each
// accessor is bounded; anything unavailable is simply absent.
func (a *Agent) enrichmentContext(ctx context.Context) string {
	if a.scheduler == nil {
		return ""
	}

	var parts []string
	if flights := a.scheduler.FlightCosts(ctx); flights != "" {
		parts = append(parts, flights)
	}
	if hotels := a.scheduler.HotelCosts(ctx); hotels != "" {
		parts = append(parts, hotels)
	}
	if estimate := a.scheduler.TrainEstimate(ctx); estimate != nil && estimate.Summary != "" {
		parts = append(parts, estimate.Summary)
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n\nBackground research (already gathered, do NOT re-search):\n" +
		strings.Join(parts, "\n\n")
}

// generatePlan researches remaining gaps, extracts the structured itinerary,
// and applies trust post-processing.
func (a *Agent) generatePlan(ctx context.Context) (string, error) {
	system := a.systemPrompt(model.PhasePlanning)
	constraintsText := formatConstraints(a.state)

	assumptionsText := ""
	if assumptions := a.waitForAssumptions(ctx); assumptions != nil {
		var sb strings.Builder
		sb.WriteString("\n\nConfirmed Assumptions:\n")
		for _, assumption := range assumptions.Assumptions {
			sb.WriteString("- " + assumption + "\n")
		}
		assumptionsText = sb.String()
	}

	searchContext := ""
	if recent := a.recentResearch(3); len(recent) > 0 {
		searchContext = "\n\nPrevious research findings:\n" + strings.Join(recent, "\n")
	}
	searchContext += a.enrichmentContext(ctx)

	interestsText := ""
	if len(a.userInterests) > 0 {
		var sb strings.Builder
		sb.WriteString("\n\nUser's specific interests to incorporate:\n")
		for _, interest := range a.userInterests {
			sb.WriteString("- " + interest + "\n")
		}
		interestsText = sb.String()
	}

	budgetCurrency := detectBudgetCurrency(a.state)

	researchPrompt := fmt.Sprintf(`Generate a day-by-day itinerary for this trip:

%s

%s%s%s%s

PREVIOUS RESEARCH is provided above. Do NOT re-search for information already available there (e.g., if flight prices, hostel prices, or attraction info is already present, skip those searches).

Only search for information NOT already covered. Typical gaps to fill:
- Local transport costs (train passes, metro, taxi) if not already researched
- Specific attraction entry fees if not already researched
- Average meal costs if not already researched
- Offbeat or hidden-gem places near the main destinations
- Any events/activities matching user interests with dates and ticket prices

IMPORTANT:
- Use the CURRENT YEAR (%d) in all search queries.
- ALL prices must be in %s (the user's currency). Convert if needed.
- If search results don't show exact prices, estimate CONSERVATIVELY (round UP).

Use web_search to find current prices for gaps only, then create the itinerary.`,
		currentDateContext(), constraintsText, assumptionsText, interestsText, searchContext,
		time.Now().Year(), budgetCurrency)

	planningResearch, err := extract.RunWithTools(ctx, a.client, system,
		[]llm.Message{llm.UserText(researchPrompt)},
		a.handlers, 8, a.observeTool)
	if err != nil {
		return "", err
	}
	a.appendResearch(planningResearch)

	planPrompt := fmt.Sprintf(`Create a structured day-by-day itinerary based on this information:

%s%s%s

Research findings (use these for accurate cost estimates):
%s

REQUIREMENTS:
1. Commit to ONE specific route
2. Each activity MUST be a JSON object with "activity" (description), "cost_estimate" (e.g. "₹2,000", "Free"), and optional "cost_notes" keys. Do NOT use plain strings for activities.
3. Include daily totals (accommodation + meals + transport + activities)
4. Include complete BUDGET BREAKDOWN at the end
5. If user mentioned specific interests (tech events, etc.), include relevant events with dates and costs
6. For EVERY day, include 2-4 tips: money-saving hacks, faster/cheaper travel alternatives, must-try food, offbeat hidden-gem spots nearby, or important warnings
7. Include 4-6 general_tips for the whole trip: visa info, SIM/connectivity, cultural etiquette, essential apps, money exchange, packing tips

CURRENCY (CRITICAL): ALL prices MUST be in %s. Convert local prices to %s. Do NOT mix currencies.

Provide realistic estimates based on research.`,
		constraintsText, assumptionsText, interestsText, planningResearch,
		budgetCurrency, budgetCurrency)

	var plan model.TravelPlan
	err = a.engine.Extract(ctx, system,
		[]llm.Message{llm.UserText(planPrompt)},
		model.TravelPlanSchema, &plan)
	if err != nil {
		return "", err
	}

	a.setPlan(&plan)
	a.state.Phase = model.PhaseRefinement

	response := formatPlan(a.currentPlan())
	response += "\n\n---\nWant me to tweak anything? I can make it safer, faster, more comfortable, or change the base location. Or if you're happy with it, we're done!"

	a.state.AddMessage("assistant", response)
	return response, nil
}
