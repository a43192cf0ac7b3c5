// Package store adapts the two session stores behind small interfaces so
// the codec, lifecycle guard and API can be tested against in-memory fakes.
package store

import (
	"context"
	"errors"
)

// Namespace prefixes every key this app owns in the ephemeral store.
const Namespace = "diagnosis"

// Logical keys for the ephemeral session store. Every diagnosis session
// writes exactly these four fields under its own token.
const (
	KeyResults   = "results"
	KeyFormInput = "form_input"
	KeyError     = "error"
	KeySessionID = "session_id"
)

// SessionKeys lists every field a purge has to remove.
var SessionKeys = []string{KeyResults, KeyFormInput, KeyError, KeySessionID}

// ErrNotFound is returned when a key or draft is absent.
var ErrNotFound = errors.New("store: not found")

// SessionStore is the ephemeral, session-scoped key-value store. Keys are
// scoped by a per-session token so concurrent sessions never collide.
type SessionStore interface {
	Put(ctx context.Context, token, key, value string) error
	Get(ctx context.Context, token, key string) (string, error)
	Clear(ctx context.Context, token string) error
}

// DraftStore is the persistent store used only for wizard draft retention.
type DraftStore interface {
	SaveDraft(ctx context.Context, token, payload string) error
	LoadDraft(ctx context.Context, token string) (string, error)
	DeleteDraft(ctx context.Context, token string) error
}

// SessionKey builds the fully namespaced ephemeral key for a field.
func SessionKey(token, key string) string {
	return Namespace + ":" + token + ":" + key
}

// DraftKey builds the persistent draft key for a token.
func DraftKey(token string) string {
	return Namespace + ":draft:" + token
}
