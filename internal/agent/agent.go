// Package agent orchestrates the multi-phase travel planning conversation:
// clarification, feasibility, assumptions, planning, and refinement. One
// Agent owns one conversation; all state mutation happens on the dispatch
// path, with background goroutines limited to write-once side products.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trip-planner/internal/enrich"
	"github.com/sells-group/trip-planner/internal/extract"
	"github.com/sells-group/trip-planner/internal/model"
	"github.com/sells-group/trip-planner/internal/resilience"
	"github.com/sells-group/trip-planner/internal/trust"
	"github.com/sells-group/trip-planner/pkg/llm"
	"github.com/sells-group/trip-planner/pkg/websearch"
)

// Action selects which conversation turn Dispatch runs.
type Action string

const (
	ActionStart       Action = "start"
	ActionClarify     Action = "clarify"
	ActionProceed     Action = "proceed"
	ActionAssumptions Action = "assumptions"
	ActionRefine      Action = "refine"
)

// Payload carries the per-action user input. Only the fields relevant to
// the dispatched action are read.
type Payload struct {
	Prompt              string `json:"prompt,omitempty"`
	Answers             string `json:"answers,omitempty"`
	Proceed             bool   `json:"proceed,omitempty"`
	Confirmed           bool   `json:"confirmed,omitempty"`
	Modifications       string `json:"modifications,omitempty"`
	AdditionalInterests string `json:"additional_interests,omitempty"`
	RefinementType      string `json:"refinement_type,omitempty"`
}

// Result is the outcome of one dispatched turn.
type Result struct {
	Phase       model.Phase `json:"phase"`
	Response    string      `json:"response"`
	HasHighRisk bool        `json:"has_high_risk"`
}

// Options configures an Agent.
type Options struct {
	Client               llm.Client // full model, used for planning and extraction
	FastClient           llm.Client // cheaper model for feasibility/assumptions; nil falls back to Client
	Search               websearch.Client
	Scheduler            *enrich.Scheduler
	Trust                *trust.Processor
	MaxExtractionRetries int
	StructureWaitCeil    time.Duration // wait-guard ceiling for background structuring
	OnSearch             func(query string)
	OnStatus             func(message string)
	Vibe                 string
}

// Agent drives one planning conversation through its phases.
type Agent struct {
	client     llm.Client
	fastClient llm.Client
	engine     *extract.Engine
	fastEngine *extract.Engine
	scheduler  *enrich.Scheduler
	trust      *trust.Processor
	handlers   []extract.ToolHandler

	mu                sync.Mutex
	state             *model.ConversationState
	searchResults     []string
	userInterests     []string
	initialExtraction *model.InitialExtraction

	bg                sync.WaitGroup
	structureWaitCeil time.Duration
	structureWaitPoll time.Duration

	onSearch   func(query string)
	onStatus   func(message string)
	lastStatus string
}

// New builds an agent with a fresh conversation state.
func New(opts Options) *Agent {
	fast := opts.FastClient
	if fast == nil {
		fast = opts.Client
	}
	ceil := opts.StructureWaitCeil
	if ceil <= 0 {
		ceil = 10 * time.Second
	}

	state := model.NewConversationState()
	state.Vibe = opts.Vibe

	a := &Agent{
		client:            opts.Client,
		fastClient:        fast,
		engine:            extract.NewEngine(opts.Client, opts.MaxExtractionRetries),
		fastEngine:        extract.NewEngine(fast, opts.MaxExtractionRetries),
		scheduler:         opts.Scheduler,
		trust:             opts.Trust,
		state:             state,
		structureWaitCeil: ceil,
		structureWaitPoll: 500 * time.Millisecond,
		onSearch:          opts.OnSearch,
		onStatus:          opts.OnStatus,
	}
	if opts.Search != nil {
		a.handlers = []extract.ToolHandler{webSearchHandler(opts.Search)}
	}
	return a
}

// State returns a snapshot of the conversation state, safe to marshal while
// background structuring is still writing to the live state.
func (a *Agent) State() *model.ConversationState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Clone()
}

// RestoreState replaces the conversation state, for resuming a persisted
// session.
func (a *Agent) RestoreState(state *model.ConversationState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = state
}

// Images returns destination images gathered by background enrichment.
func (a *Agent) Images(ctx context.Context) []enrich.Image {
	if a.scheduler == nil {
		return nil
	}
	return a.scheduler.Images(ctx)
}

// Wait blocks until all background structuring goroutines finish. Intended
// for shutdown and tests.
func (a *Agent) Wait() {
	a.bg.Wait()
}

// Dispatch runs one conversation turn.
func (a *Agent) Dispatch(ctx context.Context, action Action, payload Payload) (*Result, error) {
	switch action {
	case ActionStart:
		return a.handleStart(ctx, payload.Prompt)
	case ActionClarify:
		return a.handleClarify(ctx, payload.Answers)
	case ActionProceed:
		return a.handleProceed(ctx, payload.Proceed)
	case ActionAssumptions:
		return a.handleAssumptions(ctx, payload)
	case ActionRefine:
		return a.handleRefine(ctx, payload.RefinementType)
	default:
		return nil, eris.Errorf("agent: unknown action %q", action)
	}
}

func (a *Agent) emitStatus(message string) {
	if a.onStatus == nil || message == a.lastStatus {
		return
	}
	a.lastStatus = message
	a.onStatus(message)
}

// observeTool maps tool calls to user-facing status updates.
func (a *Agent) observeTool(name string, args json.RawMessage) {
	if name != "web_search" {
		return
	}
	var parsed struct {
		Query string `json:"query"`
	}
	_ = json.Unmarshal(args, &parsed)
	if a.onSearch != nil {
		a.onSearch(parsed.Query)
	}

	query := strings.ToLower(parsed.Query)
	switch {
	case strings.Contains(query, "flight"):
		a.emitStatus("Searching flights...")
	case strings.Contains(query, "hotel") || strings.Contains(query, "hostel"):
		a.emitStatus("Finding stays...")
	case strings.Contains(query, "transport") || strings.Contains(query, "metro") ||
		strings.Contains(query, "train") || strings.Contains(query, "pass"):
		a.emitStatus("Estimating local transport...")
	case strings.Contains(query, "meal") || strings.Contains(query, "food"):
		a.emitStatus("Estimating meal costs...")
	case strings.Contains(query, "entry fee") || strings.Contains(query, "ticket") ||
		strings.Contains(query, "attraction"):
		a.emitStatus("Checking activity costs...")
	default:
		a.emitStatus("Researching local details...")
	}
}

// goBackground runs fn on the agent's background pool. Panics and errors
// never reach the primary path.
func (a *Agent) goBackground(name string, fn func()) {
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("background task panicked",
					zap.String("task", name),
					zap.Any("panic", r),
				)
			}
		}()
		fn()
	}()
}

// waitForAssumptions polls for the background-structured assumptions record
// up to the configured ceiling. Missing after the ceiling is not an error.
func (a *Agent) waitForAssumptions(ctx context.Context) *model.Assumptions {
	deadline := time.Now().Add(a.structureWaitCeil)
	for {
		a.mu.Lock()
		assumptions := a.state.Assumptions
		a.mu.Unlock()
		if assumptions != nil {
			return assumptions
		}
		if time.Now().After(deadline) {
			zap.L().Warn("assumptions structuring still pending, proceeding without")
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(a.structureWaitPoll):
		}
	}
}

// appendResearch records a research block under the agent lock; background
// plan structuring reads the accumulated blocks concurrently.
func (a *Agent) appendResearch(research string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.searchResults = append(a.searchResults, research)
}

// recentResearch returns up to the last n research blocks.
func (a *Agent) recentResearch(n int) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.searchResults) > n {
		return append([]string(nil), a.searchResults[len(a.searchResults)-n:]...)
	}
	return append([]string(nil), a.searchResults...)
}

func (a *Agent) setRiskAssessment(risk *model.RiskAssessment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.RiskAssessment = risk
}

func (a *Agent) riskAssessment() *model.RiskAssessment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.RiskAssessment
}

func (a *Agent) currentPlan() *model.TravelPlan {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.CurrentPlan
}

// setRoute records the extracted endpoints and detected language under the
// agent lock; background plan structuring reads the destination.
func (a *Agent) setRoute(origin, destination, languageCode string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Origin = origin
	a.state.Destination = destination
	if languageCode != "" {
		a.state.LanguageCode = languageCode
	}
}

// systemPrompt is the phase prompt plus the user's language preference.
func (a *Agent) systemPrompt(phase model.Phase) string {
	return phasePrompt(phase) + languageInstruction(a.state.LanguageCode)
}

// complete runs one completion under the rate-limit retry policy.
func (a *Agent) complete(ctx context.Context, client llm.Client, req llm.Request) (*llm.Response, error) {
	cfg := resilience.RateLimitRetryConfig(resilience.RetryLogger("anthropic", "complete"))
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*llm.Response, error) {
		return client.Complete(ctx, req)
	})
}

// webSearchHandler adapts the search client into the travel research tool.
func webSearchHandler(search websearch.Client) extract.ToolHandler {
	return extract.ToolHandler{
		Tool: llm.Tool{
			Name: "web_search",
			Description: `Search the web for current travel information.

Use this when you need:
- Flight prices (search for "round trip flights <origin> to <dest> <month> <year> price")
- Train ticket prices for Indian travel (search for "Indian Railways train ticket <origin> to <dest> <class> <month> <year> price IRCTC")
- Hotel/hostel prices (search for "<dest> hotel prices per night <month> <year>")
- Activity costs, entry fees, transport costs
- Visa requirements, travel advisories, weather
- Event dates, ticket prices

TIPS FOR BETTER PRICE RESULTS:
- Include the currency (e.g. "INR", "USD", "JPY")
- Include the month and year
- Include "price" or "cost" in the query
- Search for specific sites: "skyscanner", "booking.com", "google flights", "IRCTC"`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query. Be specific: include origin, destination, dates, currency, and 'price'.",
					},
					"num_results": map[string]any{
						"type":        "integer",
						"description": "Number of results to return (default 8, max 10)",
					},
				},
				"required": []string{"query"},
			},
		},
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			var parsed struct {
				Query      string `json:"query"`
				NumResults int    `json:"num_results"`
			}
			if err := json.Unmarshal(args, &parsed); err != nil {
				return "", eris.Wrap(err, "agent: decode web_search args")
			}
			if parsed.Query == "" {
				return "", eris.New("agent: web_search requires a query")
			}
			if parsed.NumResults <= 0 {
				parsed.NumResults = 8
			}
			if parsed.NumResults > 10 {
				parsed.NumResults = 10
			}

			results, err := search.Search(ctx, parsed.Query, parsed.NumResults)
			if err != nil {
				return "", err
			}
			return formatSearchResults(parsed.Query, results), nil
		},
	}
}

// formatSearchResults renders search hits as prompt-friendly text.
func formatSearchResults(query string, results []websearch.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
	}
	return sb.String()
}
