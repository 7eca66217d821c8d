package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trip-planner/internal/resilience"
	"github.com/sells-group/trip-planner/pkg/llm"
)

// ToolHandler pairs a tool definition with its executor.
type ToolHandler struct {
	Tool    llm.Tool
	Execute func(ctx context.Context, args json.RawMessage) (string, error)
}

// ToolCallObserver is notified when a tool is invoked, for UI updates.
type ToolCallObserver func(name string, args json.RawMessage)

// RunWithTools sends the conversation with tool support, executing tool
// calls as the model requests them, up to maxCalls. Models without tool
// support get a query-generation fallback instead. Returns the final
// assistant text.
func RunWithTools(ctx context.Context, client llm.Client, system string, messages []llm.Message, handlers []ToolHandler, maxCalls int, observer ToolCallObserver) (string, error) {
	if maxCalls <= 0 {
		maxCalls = 2
	}

	if !client.SupportsToolCalling() {
		return runToolFallback(ctx, client, system, messages, handlers, maxCalls, observer)
	}

	tools := make([]llm.Tool, len(handlers))
	byName := make(map[string]ToolHandler, len(handlers))
	for i, h := range handlers {
		tools[i] = h.Tool
		byName[h.Tool.Name] = h
	}

	convo := append([]llm.Message(nil), messages...)
	callsMade := 0

	for callsMade < maxCalls {
		resp, err := complete(ctx, client, llm.Request{
			System:   system,
			Messages: convo,
			Tools:    tools,
		})
		if err != nil {
			return "", eris.Wrap(err, "extract: tool loop")
		}

		uses := resp.ToolUses()
		if len(uses) == 0 {
			return resp.Text(), nil
		}

		convo = append(convo, resp.AsMessage())

		for _, use := range uses {
			zap.L().Info("tool call",
				zap.String("tool", use.ToolName),
				zap.String("args", string(use.ToolInput)),
			)
			if observer != nil {
				observer(use.ToolName, use.ToolInput)
			}

			handler, ok := byName[use.ToolName]
			if !ok {
				convo = append(convo, llm.ToolResult(use.ToolID,
					fmt.Sprintf("unknown tool %q", use.ToolName), true))
				callsMade++
				continue
			}

			result, err := handler.Execute(ctx, use.ToolInput)
			if err != nil {
				// Tool failures go back to the model as error results so
				// the conversation can continue without the lookup.
				convo = append(convo, llm.ToolResult(use.ToolID, err.Error(), true))
			} else {
				convo = append(convo, llm.ToolResult(use.ToolID, result, false))
			}
			callsMade++
		}
	}

	// Tool budget exhausted: ask for a final answer without tools.
	resp, err := complete(ctx, client, llm.Request{
		System:   system,
		Messages: convo,
	})
	if err != nil {
		return "", eris.Wrap(err, "extract: tool loop final")
	}
	return resp.Text(), nil
}

// runToolFallback serves models without tool calling: ask the model which
// web searches it needs, run them directly, then continue the chat with the
// results appended. "NONE" means no search is needed.
func runToolFallback(ctx context.Context, client llm.Client, system string, messages []llm.Message, handlers []ToolHandler, maxCalls int, observer ToolCallObserver) (string, error) {
	searcher := pickSearchHandler(handlers)
	if searcher == nil {
		resp, err := complete(ctx, client, llm.Request{System: system, Messages: messages})
		if err != nil {
			return "", eris.Wrap(err, "extract: fallback without tools")
		}
		return resp.Text(), nil
	}

	var convoText strings.Builder
	for _, m := range messages {
		for _, b := range m.Blocks {
			if b.Type == "text" {
				fmt.Fprintf(&convoText, "%s: %s\n", m.Role, b.Text)
			}
		}
	}

	queryPrompt := fmt.Sprintf(`Given the conversation below, list up to %d web search queries needed to answer accurately.
One query per line. If no search is needed, respond with "NONE".

Conversation:
%s`, maxCalls, convoText.String())

	low := 0.2
	queryResp, err := complete(ctx, client, llm.Request{
		System:      "You generate search queries only.",
		Messages:    []llm.Message{llm.UserText(queryPrompt)},
		Temperature: &low,
	})
	if err != nil {
		return "", eris.Wrap(err, "extract: fallback query generation")
	}

	queries := parseQueries(queryResp.Text(), maxCalls)
	zap.L().Info("fallback search queries", zap.Strings("queries", queries))

	var results []string
	for _, query := range queries {
		args, _ := json.Marshal(map[string]string{"query": query})
		if observer != nil {
			observer(searcher.Tool.Name, args)
		}
		result, err := searcher.Execute(ctx, args)
		if err != nil {
			zap.L().Warn("fallback search failed",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		results = append(results, result)
	}

	convo := append([]llm.Message(nil), messages...)
	if len(results) > 0 {
		convo = append(convo, llm.UserText("Research results:\n"+strings.Join(results, "\n\n")))
	}

	resp, err := complete(ctx, client, llm.Request{System: system, Messages: convo})
	if err != nil {
		return "", eris.Wrap(err, "extract: fallback final")
	}
	return resp.Text(), nil
}

// pickSearchHandler returns the web_search handler, or the first handler
// when none is named web_search.
func pickSearchHandler(handlers []ToolHandler) *ToolHandler {
	for i := range handlers {
		if handlers[i].Tool.Name == "web_search" {
			return &handlers[i]
		}
	}
	if len(handlers) > 0 {
		return &handlers[0]
	}
	return nil
}

// parseQueries extracts search queries from a model reply, one per line,
// dropping bullets and the NONE sentinel.
func parseQueries(text string, limit int) []string {
	var queries []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(line, "•- \t")
		if line == "" || strings.EqualFold(line, "NONE") {
			continue
		}
		queries = append(queries, line)
		if len(queries) >= limit {
			break
		}
	}
	return queries
}

// complete runs one completion under the rate-limit retry policy.
func complete(ctx context.Context, client llm.Client, req llm.Request) (*llm.Response, error) {
	cfg := resilience.RateLimitRetryConfig(resilience.RetryLogger("anthropic", "complete"))
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*llm.Response, error) {
		return client.Complete(ctx, req)
	})
}
