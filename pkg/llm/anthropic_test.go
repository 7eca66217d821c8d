package llm

import (
	"encoding/json"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trip-planner/internal/resilience"
)

func TestToSDKMessages_TextAndToolBlocks(t *testing.T) {
	msgs := []Message{
		UserText("plan a trip to Leh"),
		{Role: "assistant", Blocks: []ContentBlock{
			{Type: "text", Text: "Looking that up."},
			{Type: "tool_use", ToolID: "tu_1", ToolName: "record_constraints", ToolInput: json.RawMessage(`{"origin":"Delhi"}`)},
		}},
		ToolResult("tu_1", "recorded", false),
	}

	out, err := toSDKMessages(msgs)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, sdk.MessageParamRoleUser, out[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, out[1].Role)
	require.Len(t, out[1].Content, 2)
	require.NotNil(t, out[1].Content[1].OfToolUse)
	assert.Equal(t, "record_constraints", out[1].Content[1].OfToolUse.Name)
	require.Len(t, out[2].Content, 1)
	require.NotNil(t, out[2].Content[0].OfToolResult)
	assert.Equal(t, "tu_1", out[2].Content[0].OfToolResult.ToolUseID)
}

func TestToSDKMessages_UnknownBlockType(t *testing.T) {
	_, err := toSDKMessages([]Message{{Role: "user", Blocks: []ContentBlock{{Type: "image"}}}})
	assert.Error(t, err)
}

func TestToSDKTool(t *testing.T) {
	tool := toSDKTool(Tool{
		Name:        "record_constraints",
		Description: "Record the traveler's constraints",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"origin": map[string]any{"type": "string"},
			},
			"required": []any{"origin"},
		},
	})

	assert.Equal(t, "record_constraints", tool.Name)
	assert.Equal(t, []string{"origin"}, tool.InputSchema.Required)
	assert.NotNil(t, tool.InputSchema.Properties)
}

func TestFromSDKMessage(t *testing.T) {
	msg := &sdk.Message{
		StopReason: "tool_use",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "Let me record that."},
			{Type: "tool_use", ID: "tu_9", Name: "record_constraints"},
		},
		Usage: sdk.Usage{InputTokens: 120, OutputTokens: 40},
	}

	resp := fromSDKMessage(msg)
	assert.Equal(t, "tool_use", resp.StopReason)
	assert.Equal(t, "Let me record that.", resp.Text())
	uses := resp.ToolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, "tu_9", uses[0].ToolID)
	assert.Equal(t, int64(120), resp.Usage.InputTokens)
}

func TestWrapAPIError_RateLimit(t *testing.T) {
	err := wrapAPIError(&sdk.Error{StatusCode: 429}, "llm: complete")
	assert.True(t, resilience.IsRateLimit(err))

	err = wrapAPIError(&sdk.Error{StatusCode: 500}, "llm: complete")
	assert.False(t, resilience.IsRateLimit(err))

	err = wrapAPIError(errors.New("dial tcp: timeout"), "llm: complete")
	assert.False(t, resilience.IsRateLimit(err))
}

func TestResponseAsMessage(t *testing.T) {
	resp := &Response{Blocks: []ContentBlock{{Type: "text", Text: "hi"}}}
	msg := resp.AsMessage()
	assert.Equal(t, "assistant", msg.Role)
	require.Len(t, msg.Blocks, 1)
}

func TestNewAnthropicDefaults(t *testing.T) {
	c := NewAnthropic(AnthropicConfig{APIKey: "k", Model: "claude-sonnet-4-5-20250929", SupportsToolCalling: true})
	assert.Equal(t, "claude-sonnet-4-5-20250929", c.Model())
	assert.True(t, c.SupportsToolCalling())
}
