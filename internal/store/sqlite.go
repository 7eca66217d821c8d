package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/trip-planner/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	phase       TEXT NOT NULL DEFAULT 'clarification',
	destination TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_phase ON sessions(phase);
CREATE INDEX IF NOT EXISTS idx_sessions_destination ON sessions(destination);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, state *model.ConversationState) (*Session, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal state")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, phase, destination, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(state.Phase), state.Destination, string(stateJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert session")
	}

	return &Session{ID: id, State: state, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, id string, state *model.ConversationState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal state")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET phase = ?, destination = ?, state = ?, updated_at = ? WHERE id = ?`,
		string(state.Phase), state.Destination, string(stateJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save session %s", id)
	}
	return checkRowsAffected(res, "session", id)
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, state, created_at, updated_at FROM sessions WHERE id = ?`,
		id,
	)
	return scanSession(row)
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	query := `SELECT id, state, created_at, updated_at FROM sessions WHERE 1=1`
	var args []any

	if filter.Phase != "" {
		query += ` AND phase = ?`
		args = append(args, string(filter.Phase))
	}
	if filter.Destination != "" {
		query += ` AND destination = ?`
		args = append(args, filter.Destination)
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: list sessions iterate")
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete session %s", id)
	}
	return checkRowsAffected(res, "session", id)
}

func (s *SQLiteStore) DeleteStaleSessions(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at < ?`, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete stale sessions")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSession(row scannable) (*Session, error) {
	var sess Session
	var stateJSON string

	err := row.Scan(&sess.ID, &stateJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan session")
	}

	sess.State = &model.ConversationState{}
	if err := json.Unmarshal([]byte(stateJSON), sess.State); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal state")
	}
	return &sess, nil
}
