package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/trip-planner/internal/model"
)

// formatConstraints renders the known trip parameters for prompts.
func formatConstraints(state *model.ConversationState) string {
	c := state.Constraints
	if c == nil {
		return fmt.Sprintf("From: %s\nTo: %s", state.Origin, state.Destination)
	}

	lines := []string{
		fmt.Sprintf("From: %s", c.Origin),
		fmt.Sprintf("To: %s", c.Destination),
	}
	if c.MonthOrSeason != "" {
		lines = append(lines, fmt.Sprintf("Season/Month: %s", c.MonthOrSeason))
	}
	if c.DurationDays > 0 {
		lines = append(lines, fmt.Sprintf("Duration: %d days", c.DurationDays))
	}
	if c.SoloOrGroup != "" {
		lines = append(lines, fmt.Sprintf("Travel type: %s", c.SoloOrGroup))
	}
	if c.Budget != "" {
		lines = append(lines, fmt.Sprintf("Budget: %s", c.Budget))
	}
	if len(c.Interests) > 0 {
		lines = append(lines, fmt.Sprintf("Interests: %s", strings.Join(c.Interests, ", ")))
	}
	if c.Vibe != "" {
		lines = append(lines, fmt.Sprintf("Trip vibe: %s", c.Vibe))
	}
	return strings.Join(lines, "\n")
}

// formatRiskAssessment renders the feasibility verdict as a friendly,
// conversational summary.
func formatRiskAssessment(risk *model.RiskAssessment) string {
	lines := []string{risk.FriendlySummary}

	if len(risk.Warnings) > 0 {
		lines = append(lines, "")
		for _, warning := range risk.Warnings {
			lines = append(lines, fmt.Sprintf("Heads up: %s", warning))
		}
	}
	if len(risk.Alternatives) > 0 {
		lines = append(lines, "")
		for _, alt := range risk.Alternatives {
			lines = append(lines, fmt.Sprintf("Alternative: %s", alt))
		}
	}
	return strings.Join(lines, "\n")
}

// formatPlan renders a travel plan for display, concise and scannable.
func formatPlan(plan *model.TravelPlan) string {
	lines := []string{fmt.Sprintf("**%s**", plan.Summary)}
	lines = append(lines, fmt.Sprintf("Route: %s", plan.Route))

	if plan.AcclimatizationNotes != "" {
		lines = append(lines, fmt.Sprintf("Note: %s", plan.AcclimatizationNotes))
	}

	lines = append(lines, "\n---\n")

	for _, day := range plan.Days {
		lines = append(lines, fmt.Sprintf("**Day %d: %s**", day.Day, day.Title))

		for _, activity := range day.Activities {
			var costStr, notesStr string
			if activity.CostEstimate != "" {
				costStr = fmt.Sprintf(" — %s", activity.CostEstimate)
			}
			if activity.CostNotes != "" {
				notesStr = fmt.Sprintf("  (%s)", activity.CostNotes)
			}
			lines = append(lines, fmt.Sprintf("  - %s%s%s", activity.Activity, costStr, notesStr))
		}

		if day.TravelTime != "" {
			travelCost := ""
			if day.TravelCost != "" {
				travelCost = fmt.Sprintf(" (%s)", day.TravelCost)
			}
			lines = append(lines, fmt.Sprintf("  Travel: %s%s", day.TravelTime, travelCost))
		}
		if day.Accommodation != "" {
			accCost := ""
			if day.AccommodationCost != "" {
				accCost = fmt.Sprintf(" — %s/night", day.AccommodationCost)
			}
			lines = append(lines, fmt.Sprintf("  Stay: %s%s", day.Accommodation, accCost))
		}
		if day.MealsCost != "" {
			lines = append(lines, fmt.Sprintf("  Meals: ~%s", day.MealsCost))
		}
		if day.DayTotal != "" {
			lines = append(lines, fmt.Sprintf("  Day total: %s", day.DayTotal))
		}
		if day.Notes != "" {
			lines = append(lines, fmt.Sprintf("  Note: %s", day.Notes))
		}
		if len(day.Tips) > 0 {
			lines = append(lines, "  Tips:")
			for _, tip := range day.Tips {
				lines = append(lines, fmt.Sprintf("    - %s", tip))
			}
		}
		lines = append(lines, "")
	}

	if b := plan.BudgetBreakdown; b != nil {
		lines = append(lines, "---\n")
		lines = append(lines, "**Budget Breakdown**\n")
		lines = append(lines, fmt.Sprintf("  Flights: %s", b.Flights))
		lines = append(lines, fmt.Sprintf("  Accommodation: %s", b.Accommodation))
		lines = append(lines, fmt.Sprintf("  Transport: %s", b.LocalTransport))
		lines = append(lines, fmt.Sprintf("  Meals: %s", b.Meals))
		lines = append(lines, fmt.Sprintf("  Activities: %s", b.Activities))
		lines = append(lines, fmt.Sprintf("  Misc: %s", b.Miscellaneous))
		lines = append(lines, fmt.Sprintf("  **Total: %s**", b.Total))
		if b.Notes != "" {
			lines = append(lines, fmt.Sprintf("\n%s", b.Notes))
		}
	}

	if len(plan.GeneralTips) > 0 {
		lines = append(lines, "\n---\n")
		lines = append(lines, "**Tips & Good to Know**\n")
		for _, tip := range plan.GeneralTips {
			lines = append(lines, fmt.Sprintf("  - %s", tip))
		}
	}

	return strings.Join(lines, "\n")
}

// currentDateContext gives the model today's date so searches use the right
// year.
func currentDateContext() string {
	now := time.Now()
	return fmt.Sprintf("Today's date: %s (Year: %d)", now.Format("January 2, 2006"), now.Year())
}

// detectBudgetCurrency infers the currency code from the budget string.
func detectBudgetCurrency(state *model.ConversationState) string {
	if state.Constraints == nil || state.Constraints.Budget == "" {
		return "USD"
	}

	budget := strings.ToUpper(state.Constraints.Budget)
	currencyKeywords := []struct {
		keywords []string
		code     string
	}{
		{[]string{"INR", "₹", "LAKH", "RUPEE"}, "INR"},
		{[]string{"USD", "$", "DOLLAR"}, "USD"},
		{[]string{"EUR", "€", "EURO"}, "EUR"},
		{[]string{"JPY", "¥", "YEN"}, "JPY"},
		{[]string{"GBP", "£", "POUND"}, "GBP"},
		{[]string{"THB", "BAHT"}, "THB"},
		{[]string{"AUD", "A$"}, "AUD"},
		{[]string{"CAD", "C$"}, "CAD"},
		{[]string{"SGD", "S$"}, "SGD"},
	}
	for _, entry := range currencyKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(budget, kw) {
				return entry.code
			}
		}
	}
	return "USD"
}
