package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trip-planner/internal/model"
	"github.com/sells-group/trip-planner/internal/trust"
	"github.com/sells-group/trip-planner/pkg/llm"
)

// fakeClient returns scripted responses in order.
type fakeClient struct {
	mu        sync.Mutex
	responses []*llm.Response
	requests  []llm.Request
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return nil, eris.New("no scripted response left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeClient) CompleteStream(ctx context.Context, req llm.Request, onChunk func(string) error) (*llm.Response, error) {
	resp, err := f.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := onChunk(resp.Text()); err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *fakeClient) SupportsToolCalling() bool { return true }
func (f *fakeClient) Model() string             { return "fake-model" }

func textResponse(text string) *llm.Response {
	return &llm.Response{Blocks: []llm.ContentBlock{{Type: "text", Text: text}}}
}

func textResponses(texts ...string) []*llm.Response {
	out := make([]*llm.Response, len(texts))
	for i, t := range texts {
		out[i] = textResponse(t)
	}
	return out
}

const (
	extractionJSON = `{"origin": "Delhi", "destination": "Leh", "month_or_season": "June",
		"duration_days": 7, "solo_or_group": "solo", "budget": "₹40,000", "interests": ["trekking"]}`

	constraintsJSON = `{"origin": "Delhi", "destination": "Leh", "month_or_season": "June",
		"duration_days": 7, "solo_or_group": "solo", "budget": "₹40,000", "interests": ["trekking"]}`

	lowRiskJSON = `{"season_weather": "LOW", "route_accessibility": "MEDIUM", "altitude_health": "MEDIUM",
		"infrastructure": "LOW", "overall_feasible": true,
		"friendly_summary": "June is prime time for Ladakh. Roads are open and the weather is stable."}`

	highRiskJSON = `{"season_weather": "HIGH", "route_accessibility": "HIGH", "altitude_health": "MEDIUM",
		"infrastructure": "MEDIUM", "overall_feasible": false,
		"friendly_summary": "January is rough up there. Passes close and temperatures drop hard.",
		"warnings": ["Srinagar-Leh highway closed in winter"],
		"alternatives": ["Consider June instead"]}`

	assumptionsJSON = `{"assumptions": ["Budget stays around ₹1,500/night", "Moderate pace with rest day"],
		"uncertain_assumptions": ["Inner Line Permit needed for lakes?"]}`

	planJSON = `{"summary": "7 days in Ladakh", "route": "Delhi -> Leh -> Pangong -> Leh -> Delhi",
		"days": [{"day": 1, "title": "Arrive and acclimatize",
			"activities": [{"activity": "Rest and hydrate", "cost_estimate": "Free"}],
			"day_total": "₹2,500", "tips": ["Skip alcohol on day one"]}],
		"flights": [{"route": "DEL-IXL", "price": "₹12,000", "booking_url": "https://example.com/f1"}],
		"budget_breakdown": {"flights": "₹12,000", "accommodation": "₹10,500", "local_transport": "₹6,000",
			"meals": "₹5,000", "activities": "₹3,000", "miscellaneous": "₹3,500",
			"total": "₹40,000", "currency": "INR"}}`
)

func newTestAgent(client llm.Client) *Agent {
	return New(Options{
		Client:            client,
		Trust:             trust.NewProcessor(8, trust.DefaultWeights()),
		StructureWaitCeil: 50 * time.Millisecond,
	})
}

func TestDispatchUnknownAction(t *testing.T) {
	a := newTestAgent(&fakeClient{})
	_, err := a.Dispatch(context.Background(), Action("teleport"), Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestStartWithFullDetails(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse(extractionJSON),
		textResponse("Got it! Let me check a few things and get your plan ready."),
	}}
	a := newTestAgent(client)

	result, err := a.Dispatch(context.Background(), ActionStart, Payload{
		Prompt: "Plan a trip from Delhi to Leh in June, 7 days, solo, ₹40,000, love trekking",
	})
	require.NoError(t, err)

	assert.Equal(t, model.PhaseClarification, result.Phase)
	assert.Contains(t, result.Response, "Got it!")
	assert.Equal(t, "Delhi", a.State().Origin)
	assert.Equal(t, "Leh", a.State().Destination)
	require.Len(t, a.State().Messages, 2)
	assert.Contains(t, a.State().Messages[0].Content, "Details already provided")
}

func TestStartWithMissingOrigin(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse(`{"destination": "Leh"}`),
	}}
	a := newTestAgent(client)

	result, err := a.Dispatch(context.Background(), ActionStart, Payload{
		Prompt: "Thinking about Ladakh sometime",
	})
	require.NoError(t, err)

	assert.Contains(t, result.Response, "where you're traveling from")
	assert.NotContains(t, result.Response, "where you want to go")
	assert.Empty(t, a.State().Origin)
	assert.Len(t, client.requests, 1, "no clarification call until both endpoints known")
}

func TestStartRegexFallback(t *testing.T) {
	// Extraction finds nothing; the regex pre-parse supplies both endpoints.
	client := &fakeClient{responses: []*llm.Response{
		textResponse(`{}`),
		textResponse("What month are you thinking, and what's your budget?"),
	}}
	a := newTestAgent(client)

	result, err := a.Dispatch(context.Background(), ActionStart, Payload{
		Prompt: "from Mumbai to Goa",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", a.State().Origin)
	assert.Equal(t, "Goa", a.State().Destination)
	assert.Contains(t, result.Response, "What month")
}

func TestClarifyLowRiskAutoAdvances(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse(constraintsJSON),
		textResponse("Research: roads open June through September. https://leh.nic.in/advisory"),
		textResponse(lowRiskJSON),
	}}
	a := newTestAgent(client)
	a.state.Origin = "Delhi"
	a.state.Destination = "Leh"

	result, err := a.Dispatch(context.Background(), ActionClarify, Payload{
		Answers: "June, 7 days, solo, ₹40,000",
	})
	require.NoError(t, err)

	assert.False(t, result.HasHighRisk)
	assert.Equal(t, model.PhaseAssumptions, result.Phase)
	assert.False(t, a.State().AwaitingConfirmation)
	require.NotNil(t, a.State().Constraints)
	assert.Equal(t, "Delhi", a.State().Constraints.Origin)
	require.NotNil(t, a.State().RiskAssessment)
	assert.Contains(t, result.Response, "June is prime time")
	assert.Len(t, a.searchResults, 1)
}

func TestClarifyHighRiskGates(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse(constraintsJSON),
		textResponse("Research: passes closed, heavy snowfall reported."),
		textResponse(highRiskJSON),
	}}
	a := newTestAgent(client)
	a.state.Origin = "Delhi"
	a.state.Destination = "Leh"

	result, err := a.Dispatch(context.Background(), ActionClarify, Payload{
		Answers: "January, 7 days, solo",
	})
	require.NoError(t, err)

	assert.True(t, result.HasHighRisk)
	assert.Equal(t, model.PhaseFeasibility, result.Phase)
	assert.True(t, a.State().AwaitingConfirmation)
	assert.Contains(t, result.Response, "Want to go ahead anyway")
	assert.Contains(t, result.Response, "Heads up: Srinagar-Leh highway closed in winter")
	assert.Contains(t, result.Response, "Alternative: Consider June instead")
}

func TestProceedDeclinedWhileAwaiting(t *testing.T) {
	a := newTestAgent(&fakeClient{})
	a.state.Phase = model.PhaseFeasibility
	a.state.AwaitingConfirmation = true

	result, err := a.Dispatch(context.Background(), ActionProceed, Payload{Proceed: false})
	require.NoError(t, err)

	assert.Contains(t, result.Response, "Totally fair")
	assert.Equal(t, model.PhaseFeasibility, result.Phase)
	assert.False(t, a.State().AwaitingConfirmation)
}

func TestProceedGeneratesAssumptions(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse(assumptionsJSON),
	}}
	a := newTestAgent(client)
	a.state.Phase = model.PhaseFeasibility
	a.state.Constraints = &model.TravelConstraints{Origin: "Delhi", Destination: "Leh", Budget: "₹40,000"}

	result, err := a.Dispatch(context.Background(), ActionProceed, Payload{Proceed: true})
	require.NoError(t, err)

	assert.Equal(t, model.PhaseAssumptions, result.Phase)
	assert.True(t, a.State().AwaitingConfirmation)
	require.NotNil(t, a.State().Assumptions)
	assert.Contains(t, result.Response, "Here's what I'm going with")
	assert.Contains(t, result.Response, "Budget stays around")
	assert.Contains(t, result.Response, "Not sure about these")
	assert.Contains(t, result.Response, "Look good?")

	// Domestic routes surface the rail option in the assumptions prompt.
	require.Len(t, client.requests, 1)
	prompt := client.requests[0].Messages[0].Blocks[0].Text
	assert.Contains(t, prompt, "Indian Railways train options")
	assert.Contains(t, prompt, "budget constraint of ₹40,000")
}

func TestConfirmAssumptionsGeneratesPlan(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse("Research: Leh guesthouses ₹1,200-2,000/night. https://www.booking.com/leh"),
		textResponse(planJSON),
	}}
	a := newTestAgent(client)
	a.state.Phase = model.PhaseAssumptions
	a.state.Origin = "Delhi"
	a.state.Destination = "Leh"
	a.state.Constraints = &model.TravelConstraints{Origin: "Delhi", Destination: "Leh", Budget: "₹40,000"}
	a.setAssumptions(&model.Assumptions{Assumptions: []string{"Budget stays"}})

	result, err := a.Dispatch(context.Background(), ActionAssumptions, Payload{Confirmed: true})
	require.NoError(t, err)

	assert.Equal(t, model.PhaseRefinement, result.Phase)
	plan := a.State().CurrentPlan
	require.NotNil(t, plan)
	require.NotNil(t, plan.Confidence, "trust post-processing ran")
	assert.NotEmpty(t, plan.Sources)

	// Placeholder booking link swapped for a search deeplink.
	require.Len(t, plan.Flights, 1)
	assert.Contains(t, plan.Flights[0].BookingURL, "google.com/travel/flights")

	assert.Contains(t, result.Response, "Day 1: Arrive and acclimatize")
	assert.Contains(t, result.Response, "Budget Breakdown")
	assert.Contains(t, result.Response, "Want me to tweak anything?")
}

func TestAssumptionsWithModifications(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse("Research: astronomy meetups in Leh in June."),         // interest search
		textResponse(`{"assumptions": ["Include stargazing at Pangong"]}`), // updated assumptions
		textResponse("Research: camp bookings at Pangong."),                // planning research
		textResponse(planJSON),
	}}
	a := newTestAgent(client)
	a.state.Phase = model.PhaseAssumptions
	a.state.Origin = "Delhi"
	a.state.Destination = "Leh"
	a.state.Constraints = &model.TravelConstraints{Origin: "Delhi", Destination: "Leh"}
	a.setAssumptions(&model.Assumptions{Assumptions: []string{"Moderate pace"}})

	result, err := a.Dispatch(context.Background(), ActionAssumptions, Payload{
		Confirmed:     false,
		Modifications: "I want to do stargazing",
	})
	require.NoError(t, err)

	assert.Equal(t, model.PhaseRefinement, result.Phase)
	assert.Contains(t, a.userInterests, "I want to do stargazing")
	assert.Contains(t, a.State().Constraints.Interests, "I want to do stargazing")
	require.NotNil(t, a.State().Assumptions)
	assert.Equal(t, []string{"Include stargazing at Pangong"}, a.State().Assumptions.Assumptions)
}

func TestAssumptionsWithoutRoute(t *testing.T) {
	a := newTestAgent(&fakeClient{})
	a.state.Phase = model.PhaseAssumptions

	result, err := a.Dispatch(context.Background(), ActionAssumptions, Payload{Confirmed: true})
	require.NoError(t, err)
	assert.Contains(t, result.Response, "origin and destination")
	assert.Equal(t, model.PhaseAssumptions, result.Phase)
	assert.Nil(t, a.State().CurrentPlan)
}

func TestRefineWithoutPlan(t *testing.T) {
	a := newTestAgent(&fakeClient{})
	result, err := a.Dispatch(context.Background(), ActionRefine, Payload{RefinementType: "cheaper"})
	require.NoError(t, err)
	assert.Contains(t, result.Response, "No plan to refine")
}

func TestRefineRegeneratesPlan(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse(planJSON),
	}}
	a := newTestAgent(client)
	a.state.Phase = model.PhaseRefinement
	a.state.Destination = "Leh"
	a.state.CurrentPlan = &model.TravelPlan{Summary: "Old plan", Route: "Delhi -> Leh"}

	result, err := a.Dispatch(context.Background(), ActionRefine, Payload{RefinementType: "cheaper"})
	require.NoError(t, err)

	assert.Equal(t, model.PhaseRefinement, result.Phase)
	assert.Contains(t, result.Response, "Done — adjusted for: cheaper")
	assert.Equal(t, "7 days in Ladakh", a.State().CurrentPlan.Summary)
	require.NotNil(t, a.State().CurrentPlan.Confidence)
}

func TestWaitForAssumptionsTimesOut(t *testing.T) {
	a := newTestAgent(&fakeClient{})
	a.structureWaitPoll = 10 * time.Millisecond

	start := time.Now()
	assert.Nil(t, a.waitForAssumptions(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestLooksHighRisk(t *testing.T) {
	assert.True(t, looksHighRisk("The route is dangerous in winter."))
	assert.True(t, looksHighRisk("Travel is NOT RECOMMENDED this month."))
	assert.False(t, looksHighRisk("June is a great time, roads are open."))
}
