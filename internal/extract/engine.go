// Package extract turns free-form model output into validated domain records.
// Each extraction shows the model an example of the expected JSON shape,
// validates the reply against the record's JSON Schema, and feeds validation
// errors back for bounded retries.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/sells-group/trip-planner/internal/model"
	"github.com/sells-group/trip-planner/pkg/llm"
)

// Error reports an extraction that stayed invalid through every retry.
type Error struct {
	Schema   string
	Attempts int
	Raw      string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract: %s failed after %d attempt(s): %v", e.Schema, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Engine runs schema-validated structured extractions against an LLM.
type Engine struct {
	client     llm.Client
	maxRetries int
}

// NewEngine creates an extraction engine. maxRetries is the number of
// validation-feedback retries after the first attempt.
func NewEngine(client llm.Client, maxRetries int) *Engine {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Engine{client: client, maxRetries: maxRetries}
}

// Extract sends the conversation plus a structure instruction, validates the
// JSON reply against the schema, and unmarshals it into out. Invalid replies
// are retried with the validation errors appended as feedback.
func (e *Engine) Extract(ctx context.Context, system string, messages []llm.Message, schema model.Schema, out any) error {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema.JSON))
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("extract: compile schema %s", schema.Name))
	}

	instruction, err := e.buildInstruction(schema)
	if err != nil {
		return err
	}

	convo := make([]llm.Message, 0, len(messages)+1)
	convo = append(convo, messages...)
	convo = append(convo, llm.UserText(instruction))

	var lastErr error
	var lastContent string
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		resp, err := complete(ctx, e.client, llm.Request{System: system, Messages: convo})
		if err != nil {
			return eris.Wrap(err, fmt.Sprintf("extract: %s attempt %d", schema.Name, attempt+1))
		}

		lastContent = cleanJSON(resp.Text())
		lastErr = validateAndDecode(compiled, lastContent, out)
		if lastErr == nil {
			return nil
		}

		if attempt < e.maxRetries {
			zap.L().Warn("extraction invalid, retrying with feedback",
				zap.String("schema", schema.Name),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr),
			)
			convo = append(convo,
				llm.AssistantText(lastContent),
				llm.UserText(feedbackPrompt(lastErr)),
			)
		}
	}

	preview := lastContent
	if len(preview) > 500 {
		preview = preview[:500]
	}
	return &Error{Schema: schema.Name, Attempts: e.maxRetries + 1, Raw: preview, Err: lastErr}
}

func (e *Engine) buildInstruction(schema model.Schema) (string, error) {
	example, err := BuildExample(schema.JSON)
	if err != nil {
		return "", err
	}
	exampleJSON, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "extract: marshal example")
	}

	var sb strings.Builder
	sb.WriteString("Respond with a JSON object using EXACTLY the structure below. ")
	sb.WriteString("Fill in real values instead of placeholders.\n\n")
	sb.WriteString("CRITICAL: Every nested object MUST remain an object with its own keys. ")
	sb.WriteString("Do NOT flatten objects into strings. For example, if the structure shows ")
	sb.WriteString(`an array of objects like [{"activity": "...", "cost_estimate": "..."}], `)
	sb.WriteString("each element MUST be an object with those keys, NOT a plain string.\n\n")
	sb.WriteString("Expected structure:\n")
	sb.Write(exampleJSON)
	sb.WriteString("\n\nFull JSON schema for reference:\n")
	sb.WriteString(schema.JSON)
	sb.WriteString("\n\nReturn ONLY the JSON object. No markdown, no explanation.")
	return sb.String(), nil
}

func feedbackPrompt(validationErr error) string {
	msg := validationErr.Error()
	if len(msg) > 1000 {
		msg = msg[:1000]
	}
	return "Your previous JSON response had validation errors:\n" + msg + "\n\n" +
		"Please fix these errors. Remember:\n" +
		"- Array items that should be objects MUST be objects (with their own keys), NOT plain strings.\n" +
		"- Follow the exact structure from the schema.\n\n" +
		"Return ONLY the corrected JSON object."
}

// validateAndDecode checks content against the compiled schema, then
// unmarshals it into out.
func validateAndDecode(compiled *gojsonschema.Schema, content string, out any) error {
	result, err := compiled.Validate(gojsonschema.NewStringLoader(content))
	if err != nil {
		return eris.Wrap(err, "invalid JSON")
	}
	if !result.Valid() {
		var parts []string
		for _, e := range result.Errors() {
			parts = append(parts, e.String())
		}
		return eris.New(strings.Join(parts, "; "))
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return eris.Wrap(err, "decode validated JSON")
	}
	return nil
}

// cleanJSON strips markdown code fences and surrounding prose from a model
// reply, keeping only the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
