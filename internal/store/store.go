// Package store persists planning sessions so conversations survive
// restarts. A session is the full conversation state snapshot, saved after
// every turn.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/trip-planner/internal/model"
)

// ErrNotFound is returned by lookups when no session matches the given ID.
var ErrNotFound = eris.New("store: session not found")

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	Phase       model.Phase `json:"phase,omitempty"`
	Destination string      `json:"destination,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	Offset      int         `json:"offset,omitempty"`
}

// Session is one persisted planning conversation.
type Session struct {
	ID        string                   `json:"id"`
	State     *model.ConversationState `json:"state"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Store defines the persistence interface for planning sessions.
type Store interface {
	CreateSession(ctx context.Context, state *model.ConversationState) (*Session, error)
	SaveSession(ctx context.Context, id string, state *model.ConversationState) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteStaleSessions(ctx context.Context, olderThan time.Duration) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
