// README: Session store backed by PostgreSQL (JSONB state, expiry column).
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema mirrors migrations/0001_sessions.sql.
const schema = `
CREATE TABLE IF NOT EXISTS conversation_sessions (
    id         TEXT PRIMARY KEY,
    status     TEXT        NOT NULL,
    state      JSONB       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS conversation_sessions_expires_at_idx
    ON conversation_sessions (expires_at);`

type PostgresStore struct {
	db  *pgxpool.Pool
	ttl time.Duration
}

func NewPostgresStore(db *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &PostgresStore{db: db, ttl: ttl}
}

// EnsureSchema creates the sessions table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure session schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*State, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `
        SELECT state
        FROM conversation_sessions
        WHERE id = $1 AND expires_at > NOW()`, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decodeState(id, data)
}

func (s *PostgresStore) Put(ctx context.Context, st *State) error {
	b, err := encodeState(st)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = s.db.Exec(ctx, `
        INSERT INTO conversation_sessions (id, status, state, updated_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE
        SET status = EXCLUDED.status,
            state = EXCLUDED.state,
            updated_at = EXCLUDED.updated_at,
            expires_at = EXCLUDED.expires_at`,
		st.SessionID,
		string(st.Status),
		b,
		now,
		now.Add(s.ttl),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM conversation_sessions WHERE id = $1`, id)
	return err
}

// DeleteExpired removes sessions past their expiry and returns the count.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM conversation_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
