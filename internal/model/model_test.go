package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestNewConversationState(t *testing.T) {
	st := NewConversationState()
	assert.Equal(t, PhaseClarification, st.Phase)
	assert.Empty(t, st.Messages)
	assert.False(t, st.AwaitingConfirmation)
}

func TestConversationStateMessages(t *testing.T) {
	st := NewConversationState()
	st.AddMessage("user", "hello")
	st.AddMessage("assistant", "hi there")
	require.Len(t, st.Messages, 2)
	assert.Equal(t, "assistant", st.Messages[1].Role)

}

func TestConversationStateClone(t *testing.T) {
	st := NewConversationState()
	st.Destination = "Leh"
	st.AddMessage("user", "hello")

	clone := st.Clone()
	st.AddMessage("assistant", "hi there")

	assert.Equal(t, "Leh", clone.Destination)
	assert.Len(t, clone.Messages, 1, "clone must not see later appends")
	assert.Len(t, st.Messages, 2)
}

func TestReadyToPlan(t *testing.T) {
	st := NewConversationState()
	assert.False(t, st.ReadyToPlan())
	st.Constraints = &TravelConstraints{Origin: "Delhi"}
	assert.False(t, st.ReadyToPlan())
	st.Constraints.Destination = "Leh"
	assert.True(t, st.ReadyToPlan())
}

func TestRiskAssessmentHasHighRisk(t *testing.T) {
	var ra *RiskAssessment
	assert.False(t, ra.HasHighRisk())

	ra = &RiskAssessment{
		SeasonWeather:      RiskLow,
		RouteAccessibility: RiskMedium,
		AltitudeHealth:     RiskLow,
		Infrastructure:     RiskLow,
	}
	assert.False(t, ra.HasHighRisk())

	ra.AltitudeHealth = RiskHigh
	assert.True(t, ra.HasHighRisk())
}

func TestSchemasCompile(t *testing.T) {
	for _, s := range []Schema{
		InitialExtractionSchema,
		TravelConstraintsSchema,
		RiskAssessmentSchema,
		AssumptionsSchema,
		TravelPlanSchema,
	} {
		_, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s.JSON))
		require.NoError(t, err, "schema %s must compile", s.Name)
	}
}

func TestTravelPlanValidatesAgainstSchema(t *testing.T) {
	plan := TravelPlan{
		Summary: "A week in Ladakh",
		Route:   "Delhi -> Leh -> Nubra -> Pangong -> Leh",
		Days: []DayPlan{{
			Day:   1,
			Title: "Arrival and rest",
			Activities: []ActivityCost{
				{Activity: "Acclimatize in Leh", CostEstimate: "Free"},
			},
		}},
	}
	raw, err := json.Marshal(plan)
	require.NoError(t, err)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(TravelPlanSchema.JSON),
		gojsonschema.NewBytesLoader(raw),
	)
	require.NoError(t, err)
	assert.True(t, result.Valid(), "errors: %v", result.Errors())
}
