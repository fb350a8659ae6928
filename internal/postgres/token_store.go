package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_tokens (
	session_id TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// TokenStore keeps session tokens in Postgres; they survive a Redis flush.
type TokenStore struct {
	DB *pgxpool.Pool
}

func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	return errors.Wrap(err, "create session_tokens")
}

func (s *TokenStore) Load(ctx context.Context, sessionID string) (string, error) {
	var tok string
	err := s.DB.QueryRow(ctx, `SELECT token FROM session_tokens WHERE session_id = $1`, sessionID).Scan(&tok)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return tok, errors.Wrap(err, "select token")
}

func (s *TokenStore) Save(ctx context.Context, sessionID, token string) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO session_tokens (session_id, token, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET token = EXCLUDED.token, updated_at = now()`,
		sessionID, token)
	return errors.Wrap(err, "upsert token")
}

func (s *TokenStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM session_tokens WHERE session_id = $1`, sessionID)
	return errors.Wrap(err, "delete token")
}
