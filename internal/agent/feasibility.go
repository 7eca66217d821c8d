package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/sells-group/trip-planner/internal/extract"
	"github.com/sells-group/trip-planner/internal/model"
	"github.com/sells-group/trip-planner/pkg/llm"
)

// runFeasibilityCheck researches the route, produces a structured risk
// assessment, and either gates on confirmation (any HIGH risk) or advances
// straight to the assumptions phase.
func (a *Agent) runFeasibilityCheck(ctx context.Context) (string, bool, error) {
	system := a.systemPrompt(model.PhaseFeasibility)
	constraintsText := formatConstraints(a.state)

	searchPrompt := fmt.Sprintf(`You need to evaluate the feasibility of this trip:

%s

%s

Before providing your assessment, search for current information about:
1. Current travel advisories or restrictions for the destination
2. Weather/seasonal conditions for the specified travel period
3. Any recent infrastructure or accessibility issues

IMPORTANT: Use the CURRENT YEAR (%d) in your search queries, not past years.

Use the web_search tool to gather this information, then provide your risk assessment.`,
		currentDateContext(), constraintsText, time.Now().Year())

	research, err := extract.RunWithTools(ctx, a.fastClient, system,
		[]llm.Message{llm.UserText(searchPrompt)},
		a.handlers, 2, a.observeTool)
	if err != nil {
		return "", false, err
	}
	a.appendResearch(research)

	assessmentPrompt := fmt.Sprintf(`Based on the information gathered, provide a structured risk assessment for this trip:

%s

Research findings:
%s

Provide a risk assessment for each category.`, constraintsText, research)

	var risk model.RiskAssessment
	err = a.fastEngine.Extract(ctx, system,
		[]llm.Message{llm.UserText(assessmentPrompt)},
		model.RiskAssessmentSchema, &risk)
	if err != nil {
		return "", false, err
	}
	a.setRiskAssessment(&risk)

	response := formatRiskAssessment(&risk)
	hasHighRisk := risk.HasHighRisk()

	if hasHighRisk {
		response += "\n\nThis trip has some real risks. Want to go ahead anyway, or should we look at alternatives?"
		a.state.AwaitingConfirmation = true
	} else {
		a.state.Phase = model.PhaseAssumptions
	}

	a.state.AddMessage("assistant", response)
	return response, hasHighRisk, nil
}
