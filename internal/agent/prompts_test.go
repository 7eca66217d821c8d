package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trip-planner/internal/model"
)

func TestLanguageInstruction(t *testing.T) {
	assert.Empty(t, languageInstruction(""))
	assert.Contains(t, languageInstruction("fr"), "French (fr)")
	assert.Contains(t, languageInstruction("fr"), "MUST be in French")
	// Unknown codes pass through rather than being dropped.
	assert.Contains(t, languageInstruction("eo"), "eo (eo)")
}

func TestDetectedLanguageCarriesIntoPrompts(t *testing.T) {
	client := &fakeClient{responses: textResponses(
		`{"origin": "Paris", "destination": "Leh", "language_code": "fr"}`,
		"D'accord ! Quelques questions avant de planifier.",
	)}
	a := newTestAgent(client)

	_, err := a.Dispatch(context.Background(), ActionStart, Payload{
		Prompt: "Je veux voyager de Paris à Leh",
	})
	require.NoError(t, err)

	assert.Equal(t, "fr", a.State().LanguageCode)
	require.Len(t, client.requests, 2)
	assert.Contains(t, client.requests[1].System, "ALL your responses MUST be in French")
	assert.Contains(t, a.systemPrompt(model.PhasePlanning), "MUST be in French")
}
