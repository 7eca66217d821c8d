package extract

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trip-planner/internal/model"
	"github.com/sells-group/trip-planner/pkg/llm"
)

// fakeClient returns scripted responses in order and records every request.
type fakeClient struct {
	mu        sync.Mutex
	responses []*llm.Response
	errs      []error
	requests  []llm.Request
	tools     bool
}

func textResponse(text string) *llm.Response {
	return &llm.Response{Blocks: []llm.ContentBlock{{Type: "text", Text: text}}, StopReason: "end_turn"}
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return textResponse(""), nil
}

func (f *fakeClient) CompleteStream(ctx context.Context, req llm.Request, onChunk func(string) error) (*llm.Response, error) {
	resp, err := f.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if onChunk != nil {
		if err := onChunk(resp.Text()); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (f *fakeClient) SupportsToolCalling() bool { return f.tools }

func (f *fakeClient) Model() string { return "fake-model" }

func TestExtractFirstTry(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse(`{"origin":"Delhi","destination":"Leh","interests":["trekking"]}`),
	}}
	engine := NewEngine(client, 2)

	var out model.TravelConstraints
	err := engine.Extract(context.Background(), "You extract travel constraints.",
		[]llm.Message{llm.UserText("I want to go from Delhi to Leh for trekking")},
		model.TravelConstraintsSchema, &out)
	require.NoError(t, err)
	assert.Equal(t, "Delhi", out.Origin)
	assert.Equal(t, "Leh", out.Destination)
	assert.Equal(t, []string{"trekking"}, out.Interests)
	require.Len(t, client.requests, 1)

	// The extraction instruction is appended as the final user message.
	last := client.requests[0].Messages[len(client.requests[0].Messages)-1]
	assert.Contains(t, last.Blocks[0].Text, "Expected structure")
	assert.Contains(t, last.Blocks[0].Text, "Return ONLY the JSON object")
}

func TestExtractStripsCodeFences(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse("```json\n{\"origin\":\"Delhi\",\"destination\":\"Leh\"}\n```"),
	}}
	engine := NewEngine(client, 0)

	var out model.TravelConstraints
	err := engine.Extract(context.Background(), "", nil, model.TravelConstraintsSchema, &out)
	require.NoError(t, err)
	assert.Equal(t, "Leh", out.Destination)
}

func TestExtractRetriesWithFeedback(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse(`{"origin":"Delhi"}`), // missing required destination
		textResponse(`{"origin":"Delhi","destination":"Leh"}`),
	}}
	engine := NewEngine(client, 2)

	var out model.TravelConstraints
	err := engine.Extract(context.Background(), "", nil, model.TravelConstraintsSchema, &out)
	require.NoError(t, err)
	assert.Equal(t, "Leh", out.Destination)
	require.Len(t, client.requests, 2)

	// Retry carries the bad reply and the validation feedback.
	second := client.requests[1].Messages
	require.GreaterOrEqual(t, len(second), 3)
	assert.Equal(t, "assistant", second[len(second)-2].Role)
	assert.Contains(t, second[len(second)-1].Blocks[0].Text, "validation errors")
}

func TestExtractExhaustsRetries(t *testing.T) {
	client := &fakeClient{responses: []*llm.Response{
		textResponse(`not json at all`),
		textResponse(`still not json`),
	}}
	engine := NewEngine(client, 1)

	var out model.TravelConstraints
	err := engine.Extract(context.Background(), "", nil, model.TravelConstraintsSchema, &out)
	require.Error(t, err)
	var exErr *Error
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, 2, exErr.Attempts)
	assert.Contains(t, err.Error(), "failed after 2 attempt(s)")
	assert.Len(t, client.requests, 2)
}

func TestCleanJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                              `{"a":1}`,
		"```json\n{\"a\":1}\n```":              `{"a":1}`,
		"```\n{\"a\":1}\n```":                  `{"a":1}`,
		"Here is the plan:\n{\"a\":1}\nDone.":  `{"a":1}`,
		"  {\"a\": {\"b\": 2}} trailing text ": `{"a": {"b": 2}}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanJSON(in))
	}
}

func TestBuildExample(t *testing.T) {
	example, err := BuildExample(model.RiskAssessmentSchema.JSON)
	require.NoError(t, err)

	// Enum refs resolve to the first enum value.
	assert.Equal(t, "LOW", example["season_weather"])
	assert.Equal(t, true, example["overall_feasible"])
	assert.Contains(t, example["friendly_summary"], "<")

	warnings, ok := example["warnings"].([]any)
	require.True(t, ok)
	require.Len(t, warnings, 1)
}

func TestBuildExampleNestedObjects(t *testing.T) {
	example, err := BuildExample(model.TravelPlanSchema.JSON)
	require.NoError(t, err)

	days, ok := example["days"].([]any)
	require.True(t, ok)
	require.Len(t, days, 1)
	day, ok := days[0].(map[string]any)
	require.True(t, ok, "array items resolved through $ref stay objects")
	assert.Equal(t, 0, day["day"].(int))

	activities, ok := day["activities"].([]any)
	require.True(t, ok)
	activity, ok := activities[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, activity, "cost_estimate")
}

func TestBuildExampleNullableTypes(t *testing.T) {
	example, err := BuildExample(model.InitialExtractionSchema.JSON)
	require.NoError(t, err)

	// ["integer","null"] unions use the non-null branch.
	assert.Equal(t, 0, example["duration_days"].(int))
	assert.Contains(t, example["origin"], "<")
}
