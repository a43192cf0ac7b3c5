// Package lifecycle tears diagnosis sessions down. The guard is the only
// component allowed to destroy session state: every other package writes
// and reads, but never deletes behind the guard's back (the one exception
// is the wizard draft, which the submit flow retires itself).
package lifecycle

import (
	"context"
	"sync"

	"talent-diagnosis/internal/common/logger"
	"talent-diagnosis/internal/common/metrics"
	"talent-diagnosis/internal/diagnosis/store"
)

// Trigger names why a purge ran.
type Trigger string

const (
	TriggerColdStart Trigger = "cold_start"
	TriggerHidden    Trigger = "hidden"
	TriggerUnload    Trigger = "unload"
	TriggerReset     Trigger = "reset"
)

// Guard purges every namespaced ephemeral key a session owns. It tracks
// live session tokens so a process-wide trigger (shutdown signal) can
// sweep all of them.
type Guard struct {
	sessions store.SessionStore
	drafts   store.DraftStore
	logger   logger.Logger

	mu     sync.Mutex
	tokens map[string]struct{}
}

func NewGuard(sessions store.SessionStore, drafts store.DraftStore, log logger.Logger) *Guard {
	return &Guard{
		sessions: sessions,
		drafts:   drafts,
		logger:   log.WithFields(map[string]interface{}{"component": "lifecycle"}),
		tokens:   make(map[string]struct{}),
	}
}

// Register records a live session token. Registering the same token twice
// is a no-op.
func (g *Guard) Register(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens[token] = struct{}{}
}

// ColdStart purges unconditionally before a wizard starts, so a diagnosis
// never silently resumes stale data from a previous session. The draft is
// purged too: drafts survive only an uninterrupted session, never a cold
// start.
func (g *Guard) ColdStart(ctx context.Context, token string) {
	g.purge(ctx, token, TriggerColdStart, true)
	g.Register(token)
}

// HandleHidden purges the session's ephemeral keys when its tab goes to
// the background. The draft survives; the session may come back.
func (g *Guard) HandleHidden(ctx context.Context, token string) {
	g.purge(ctx, token, TriggerHidden, false)
}

// HandleUnload purges everything the session owns when its tab is about
// to be discarded.
func (g *Guard) HandleUnload(ctx context.Context, token string) {
	g.purge(ctx, token, TriggerUnload, true)
	g.forget(token)
}

// HandleReset purges on a user-initiated start-over.
func (g *Guard) HandleReset(ctx context.Context, token string) {
	g.purge(ctx, token, TriggerReset, true)
	g.forget(token)
}

// PurgeAll sweeps every registered session. Wired to the process
// termination signal in the server entrypoint.
func (g *Guard) PurgeAll(ctx context.Context) {
	g.mu.Lock()
	tokens := make([]string, 0, len(g.tokens))
	for token := range g.tokens {
		tokens = append(tokens, token)
	}
	g.tokens = make(map[string]struct{})
	g.mu.Unlock()

	for _, token := range tokens {
		g.purge(ctx, token, TriggerUnload, true)
	}
}

func (g *Guard) purge(ctx context.Context, token string, trigger Trigger, includeDraft bool) {
	if err := g.sessions.Clear(ctx, token); err != nil {
		g.logger.Warn("session purge failed", map[string]interface{}{
			"token":   token,
			"trigger": string(trigger),
			"error":   err,
		})
	}
	if includeDraft {
		if err := g.drafts.DeleteDraft(ctx, token); err != nil {
			g.logger.Warn("draft purge failed", map[string]interface{}{
				"token": token,
				"error": err,
			})
		}
	}
	metrics.SessionPurges.WithLabelValues(string(trigger)).Inc()
	g.logger.Debug("session purged", map[string]interface{}{
		"token":   token,
		"trigger": string(trigger),
	})
}

func (g *Guard) forget(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.tokens, token)
}
