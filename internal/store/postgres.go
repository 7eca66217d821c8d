package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/trip-planner/internal/db"
	"github.com/sells-group/trip-planner/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot session operations.
var preparedStatements = map[string]string{
	"insert_session": `INSERT INTO sessions (id, phase, destination, state, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"save_session":   `UPDATE sessions SET phase = $1, destination = $2, state = $3, updated_at = $4 WHERE id = $5`,
	"get_session":    `SELECT id, state, created_at, updated_at FROM sessions WHERE id = $1`,
	"delete_session": `DELETE FROM sessions WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, func(cfg *pgxpool.Config) {
		maxConns := int32(10)
		minConns := int32(2)
		if poolCfg != nil {
			if poolCfg.MaxConns > 0 {
				maxConns = poolCfg.MaxConns
			}
			if poolCfg.MinConns > 0 {
				minConns = poolCfg.MinConns
			}
		}
		cfg.MaxConns = maxConns
		cfg.MinConns = minConns
		cfg.MaxConnLifetime = 30 * time.Minute
		cfg.MaxConnIdleTime = 5 * time.Minute

		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			for name, sql := range preparedStatements {
				if _, err := conn.Prepare(ctx, name, sql); err != nil {
					return eris.Wrapf(err, "postgres: prepare %s", name)
				}
			}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	phase       TEXT NOT NULL DEFAULT 'clarification',
	destination TEXT NOT NULL DEFAULT '',
	state       JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_phase ON sessions(phase);
CREATE INDEX IF NOT EXISTS idx_sessions_destination ON sessions(destination);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, state *model.ConversationState) (*Session, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal state")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, phase, destination, state, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, string(state.Phase), state.Destination, stateJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert session")
	}

	return &Session{ID: id, State: state, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, id string, state *model.ConversationState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal state")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET phase = $1, destination = $2, state = $3, updated_at = $4 WHERE id = $5`,
		string(state.Phase), state.Destination, stateJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save session %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	var stateJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, state, created_at, updated_at FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &stateJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get session %s", id)
	}

	sess.State = &model.ConversationState{}
	if err := json.Unmarshal(stateJSON, sess.State); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal state")
	}
	return &sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	query := `SELECT id, state, created_at, updated_at FROM sessions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Phase != "" {
		query += fmt.Sprintf(` AND phase = $%d`, argIdx)
		args = append(args, string(filter.Phase))
		argIdx++
	}
	if filter.Destination != "" {
		query += fmt.Sprintf(` AND destination = $%d`, argIdx)
		args = append(args, filter.Destination)
		argIdx++
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var stateJSON []byte
		if err := rows.Scan(&sess.ID, &stateJSON, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		sess.State = &model.ConversationState{}
		if err := json.Unmarshal(stateJSON, sess.State); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal state")
		}
		sessions = append(sessions, sess)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: list sessions iterate")
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete session %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteStaleSessions(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE updated_at < $1`, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete stale sessions")
	}
	return int(tag.RowsAffected()), nil
}
