package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"talent-diagnosis/internal/models"
)

// SessionRepository writes a DiagnosisSession into the ephemeral store,
// one value per logical key, and reads it back. Ownership of the session
// transfers here at submission time; the results view only borrows it.
type SessionRepository struct {
	store SessionStore
}

func NewSessionRepository(s SessionStore) *SessionRepository {
	return &SessionRepository{store: s}
}

// Save persists the full session under the token's namespaced keys.
func (r *SessionRepository) Save(ctx context.Context, token string, session *models.DiagnosisSession) error {
	results, err := json.Marshal(session.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	form, err := json.Marshal(session.FormInput)
	if err != nil {
		return fmt.Errorf("marshal form input: %w", err)
	}

	if err := r.store.Put(ctx, token, KeyResults, string(results)); err != nil {
		return err
	}
	if err := r.store.Put(ctx, token, KeyFormInput, string(form)); err != nil {
		return err
	}
	if err := r.store.Put(ctx, token, KeyError, session.Error); err != nil {
		return err
	}
	return r.store.Put(ctx, token, KeySessionID, session.SessionID)
}

// Load reconstructs the session. A missing results key means no session
// was ever stored for this token.
func (r *SessionRepository) Load(ctx context.Context, token string) (*models.DiagnosisSession, error) {
	rawResults, err := r.store.Get(ctx, token, KeyResults)
	if err != nil {
		return nil, err
	}

	session := &models.DiagnosisSession{}
	if err := json.Unmarshal([]byte(rawResults), &session.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}

	if rawForm, err := r.store.Get(ctx, token, KeyFormInput); err == nil {
		if err := json.Unmarshal([]byte(rawForm), &session.FormInput); err != nil {
			return nil, fmt.Errorf("unmarshal form input: %w", err)
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if errStr, err := r.store.Get(ctx, token, KeyError); err == nil {
		session.Error = errStr
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if sid, err := r.store.Get(ctx, token, KeySessionID); err == nil {
		session.SessionID = sid
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	return session, nil
}
