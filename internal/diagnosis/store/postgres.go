package store

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresDraftStore persists wizard drafts in a single table keyed by the
// session token. Drafts survive service restarts; sessions do not.
type PostgresDraftStore struct {
	db *sql.DB
}

func NewPostgresDraftStore(db *sql.DB) *PostgresDraftStore {
	return &PostgresDraftStore{db: db}
}

func (s *PostgresDraftStore) SaveDraft(ctx context.Context, token, payload string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wizard_drafts (token, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (token) DO UPDATE SET payload = $2, updated_at = NOW()`,
		token, payload)
	return err
}

func (s *PostgresDraftStore) LoadDraft(ctx context.Context, token string) (string, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM wizard_drafts WHERE token = $1`, token).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return payload, err
}

func (s *PostgresDraftStore) DeleteDraft(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM wizard_drafts WHERE token = $1`, token)
	return err
}
