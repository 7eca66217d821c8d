package model

// Phase identifies a stage in the planning conversation lifecycle.
type Phase string

const (
	PhaseClarification Phase = "clarification"
	PhaseFeasibility   Phase = "feasibility"
	PhaseAssumptions   Phase = "assumptions"
	PhasePlanning      Phase = "planning"
	PhaseRefinement    Phase = "refinement"
)

// Message is a single role-tagged entry in the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationState is the full mutable state of a planning conversation.
// It is owned exclusively by one session; the owning agent serializes
// access, so snapshots for persistence must go through Clone.
type ConversationState struct {
	Phase                Phase              `json:"phase"`
	Origin               string             `json:"origin,omitempty"`
	Destination          string             `json:"destination,omitempty"`
	Constraints          *TravelConstraints `json:"constraints,omitempty"`
	RiskAssessment       *RiskAssessment    `json:"risk_assessment,omitempty"`
	Assumptions          *Assumptions       `json:"assumptions,omitempty"`
	CurrentPlan          *TravelPlan        `json:"current_plan,omitempty"`
	Messages             []Message          `json:"messages"`
	AwaitingConfirmation bool               `json:"awaiting_confirmation"`
	Vibe                 string             `json:"vibe,omitempty"`
	LanguageCode         string             `json:"language_code,omitempty"`
}

// NewConversationState returns a fresh state in the clarification phase.
func NewConversationState() *ConversationState {
	return &ConversationState{Phase: PhaseClarification}
}

// AddMessage appends a message to the conversation history.
func (s *ConversationState) AddMessage(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// Clone returns a copy safe to read while background structuring keeps
// writing to the original. The message slice is copied; the record pointers
// (constraints, risk, assumptions, plan) are shared, which is safe because
// records are never mutated after being published.
func (s *ConversationState) Clone() *ConversationState {
	clone := *s
	clone.Messages = append([]Message(nil), s.Messages...)
	return &clone
}

// ReadyToPlan reports whether the state satisfies the planning
// preconditions: constraints extracted with both endpoints known.
func (s *ConversationState) ReadyToPlan() bool {
	c := s.Constraints
	return c != nil && c.Origin != "" && c.Destination != ""
}
