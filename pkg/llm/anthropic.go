package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/trip-planner/internal/resilience"
)

// AnthropicConfig configures the Anthropic-backed client.
type AnthropicConfig struct {
	APIKey              string
	Model               string
	MaxTokens           int64
	Temperature         float64
	SupportsToolCalling bool
}

// anthropicClient implements Client using the official anthropic-sdk-go.
type anthropicClient struct {
	client sdk.Client
	cfg    AnthropicConfig
}

// NewAnthropic creates a Client backed by the Anthropic SDK.
func NewAnthropic(cfg AnthropicConfig) Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	return &anthropicClient{
		client: sdk.NewClient(
			option.WithAPIKey(cfg.APIKey),
		),
		cfg: cfg,
	}
}

func (c *anthropicClient) Model() string { return c.cfg.Model }

func (c *anthropicClient) SupportsToolCalling() bool { return c.cfg.SupportsToolCalling }

func (c *anthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapAPIError(err, "llm: complete")
	}

	return fromSDKMessage(msg), nil
}

func (c *anthropicClient) CompleteStream(ctx context.Context, req Request, onChunk func(chunk string) error) (*Response, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	acc := sdk.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return nil, eris.Wrap(err, "llm: accumulate stream event")
		}

		switch ev := event.AsAny().(type) {
		case sdk.ContentBlockDeltaEvent:
			if ev.Delta.Type == "text_delta" && onChunk != nil {
				if err := onChunk(ev.Delta.Text); err != nil {
					_ = stream.Close()
					return nil, eris.Wrap(err, "llm: stream consumer")
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, wrapAPIError(err, "llm: stream")
	}

	return fromSDKMessage(&acc), nil
}

func (c *anthropicClient) buildParams(req Request) (sdk.MessageNewParams, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	msgs, err := toSDKMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.cfg.Model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}

	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	} else if c.cfg.Temperature > 0 {
		params.Temperature = sdk.Float(c.cfg.Temperature)
	}

	if len(req.Tools) > 0 {
		tools := make([]sdk.ToolUnionParam, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = sdk.ToolUnionParam{OfTool: toSDKTool(t)}
		}
		params.Tools = tools

		if req.ForceTool != "" {
			params.ToolChoice = sdk.ToolChoiceUnionParam{
				OfTool: &sdk.ToolChoiceToolParam{Name: req.ForceTool},
			}
		}
	}

	return params, nil
}

// wrapAPIError converts SDK rate-limit responses into resilience.RateLimitError
// so retry policies can distinguish them from hard failures.
func wrapAPIError(err error, op string) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return &resilience.RateLimitError{Provider: "anthropic", Err: err}
	}
	return eris.Wrap(err, op)
}

// --- SDK type conversion helpers ---

func toSDKMessages(msgs []Message) ([]sdk.MessageParam, error) {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Blocks))
		for _, b := range m.Blocks {
			switch b.Type {
			case "text":
				blocks = append(blocks, sdk.NewTextBlock(b.Text))
			case "tool_use":
				var input any
				if len(b.ToolInput) > 0 {
					if err := json.Unmarshal(b.ToolInput, &input); err != nil {
						return nil, eris.Wrap(err, "llm: decode tool input")
					}
				}
				blocks = append(blocks, sdk.ContentBlockParamUnion{
					OfToolUse: &sdk.ToolUseBlockParam{
						ID:    b.ToolID,
						Name:  b.ToolName,
						Input: input,
					},
				})
			case "tool_result":
				blocks = append(blocks, sdk.ContentBlockParamUnion{
					OfToolResult: &sdk.ToolResultBlockParam{
						ToolUseID: b.ToolID,
						IsError:   sdk.Bool(b.IsError),
						Content: []sdk.ToolResultBlockParamContentUnion{
							{OfText: &sdk.TextBlockParam{Text: b.Text}},
						},
					},
				})
			default:
				return nil, eris.Errorf("llm: unsupported block type %q", b.Type)
			}
		}

		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(blocks...)
		default:
			out[i] = sdk.NewUserMessage(blocks...)
		}
	}
	return out, nil
}

func toSDKTool(t Tool) *sdk.ToolParam {
	schema := sdk.ToolInputSchemaParam{}
	if props, ok := t.InputSchema["properties"]; ok {
		schema.Properties = props
	}
	if req, ok := t.InputSchema["required"].([]string); ok {
		schema.Required = req
	} else if reqAny, ok := t.InputSchema["required"].([]any); ok {
		names := make([]string, 0, len(reqAny))
		for _, r := range reqAny {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
		schema.Required = names
	}

	tool := &sdk.ToolParam{
		Name:        t.Name,
		InputSchema: schema,
	}
	if t.Description != "" {
		tool.Description = sdk.String(t.Description)
	}
	return tool
}

func fromSDKMessage(msg *sdk.Message) *Response {
	blocks := make([]ContentBlock, 0, len(msg.Content))
	for _, b := range msg.Content {
		switch b.Type {
		case "text":
			blocks = append(blocks, ContentBlock{Type: "text", Text: b.Text})
		case "tool_use":
			input, err := json.Marshal(b.Input)
			if err != nil {
				input = nil
			}
			blocks = append(blocks, ContentBlock{
				Type:      "tool_use",
				ToolID:    b.ID,
				ToolName:  b.Name,
				ToolInput: input,
			})
		}
	}

	return &Response{
		Blocks:     blocks,
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
}
