package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trip-planner/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetSession_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, state, created_at, updated_at FROM sessions WHERE id = \$1`).
		WithArgs("nonexistent-session").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSession(context.Background(), "nonexistent-session")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSession(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	state := model.NewConversationState()
	state.Destination = "Leh"
	stateJSON, err := json.Marshal(state)
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, state, created_at, updated_at FROM sessions WHERE id = \$1`).
		WithArgs("sess-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "state", "created_at", "updated_at"}).
			AddRow("sess-1", stateJSON, now, now))

	sess, err := s.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sess.ID)
	assert.Equal(t, "Leh", sess.State.Destination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSession_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE sessions SET phase = \$1`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SaveSession(context.Background(), "missing", model.NewConversationState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateSession(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	state := model.NewConversationState()
	state.Destination = "Leh"
	sess, err := s.CreateSession(context.Background(), state)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "Leh", sess.State.Destination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteStaleSessions(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM sessions WHERE updated_at < \$1`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.DeleteStaleSessions(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSessions(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	state := model.NewConversationState()
	state.Phase = model.PhaseRefinement
	stateJSON, err := json.Marshal(state)
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, state, created_at, updated_at FROM sessions WHERE true AND phase = \$1`).
		WithArgs(string(model.PhaseRefinement), 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "state", "created_at", "updated_at"}).
			AddRow("sess-1", stateJSON, now, now))

	sessions, err := s.ListSessions(context.Background(), SessionFilter{Phase: model.PhaseRefinement})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, model.PhaseRefinement, sessions[0].State.Phase)
	assert.NoError(t, mock.ExpectationsWereMet())
}
