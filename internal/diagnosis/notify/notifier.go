package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"talent-diagnosis/internal/common/logger"
	"talent-diagnosis/internal/common/metrics"
	"talent-diagnosis/internal/models"
)

// Navigator performs the fallback navigation when a reset goes
// unacknowledged. In production it redirects the client; tests swap it
// for a recorder.
type Navigator func(target string) error

// Notifier posts completion and reset messages to the hosting side. A nil
// messenger means the pipeline runs standalone: completion messages are
// skipped and reset navigates directly.
type Notifier struct {
	messenger    Messenger
	resetTimeout time.Duration
	fallbackURL  string
	navigate     Navigator
	logger       logger.Logger
	now          func() time.Time
}

func NewNotifier(messenger Messenger, resetTimeout time.Duration, fallbackURL string, navigate Navigator, log logger.Logger) *Notifier {
	return &Notifier{
		messenger:    messenger,
		resetTimeout: resetTimeout,
		fallbackURL:  fallbackURL,
		navigate:     navigate,
		logger:       log.WithFields(map[string]interface{}{"component": "notify"}),
		now:          time.Now,
	}
}

// NotifyComplete posts the completion message pair after a submission
// finishes, success or failure. Both forms carry the full, non-stripped
// form data: the host is trusted; only URLs are not. Fire-and-forget —
// delivery failures are logged and swallowed, never surfaced.
func (n *Notifier) NotifyComplete(ctx context.Context, session *models.DiagnosisSession) {
	if n.messenger == nil {
		return
	}

	outcome := "success"
	if session.Errored() {
		outcome = "error"
	}
	body := map[string]interface{}{
		"outcome":     outcome,
		"resultCount": len(session.Results),
		"formData":    session.FormInput,
		"sessionId":   session.SessionID,
	}
	if session.Errored() {
		body["error"] = session.Error
	}

	n.post(ctx, Message{Type: TypeComplete, Data: body})
	n.post(ctx, Message{Type: TypeResultsReady, Payload: body})
}

func (n *Notifier) post(ctx context.Context, msg Message) {
	if _, err := n.messenger.Post(ctx, msg); err != nil {
		metrics.HostMessages.WithLabelValues(msg.Type, "failure").Inc()
		n.logger.Warn("host message delivery failed", map[string]interface{}{
			"type":  msg.Type,
			"error": err,
		})
		return
	}
	metrics.HostMessages.WithLabelValues(msg.Type, "success").Inc()
}

// Reset asks the host to tear the session down. Standalone, it navigates
// away immediately. Hosted, it posts the reset message and waits up to
// resetTimeout for an acknowledgment; if none arrives it falls back to a
// full navigation with a reset marker and timestamp appended to defeat
// caching.
func (n *Notifier) Reset(ctx context.Context) error {
	if n.messenger == nil {
		return n.fallbackNavigate()
	}

	acked := make(chan bool, 1)
	go func() {
		ok, err := n.messenger.Post(ctx, Message{
			Type: TypeReset,
			Data: map[string]interface{}{"requestedAt": n.now().UTC().Format(time.RFC3339)},
		})
		if err != nil {
			metrics.HostMessages.WithLabelValues(TypeReset, "failure").Inc()
			n.logger.Warn("reset message delivery failed", map[string]interface{}{
				"error": err,
			})
			acked <- false
			return
		}
		metrics.HostMessages.WithLabelValues(TypeReset, "success").Inc()
		acked <- ok
	}()

	timer := time.NewTimer(n.resetTimeout)
	defer timer.Stop()

	select {
	case ok := <-acked:
		if ok {
			return nil
		}
		// Host reachable but gave no observable effect; wait out the
		// remaining window before forcing navigation.
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return n.fallbackNavigate()
	case <-timer.C:
		return n.fallbackNavigate()
	case <-ctx.Done():
		return n.fallbackNavigate()
	}
}

func (n *Notifier) fallbackNavigate() error {
	target, err := url.Parse(n.fallbackURL)
	if err != nil {
		return fmt.Errorf("parse fallback url: %w", err)
	}
	query := target.Query()
	query.Set("reset", "1")
	query.Set("ts", fmt.Sprintf("%d", n.now().UnixMilli()))
	target.RawQuery = query.Encode()

	n.logger.Info("reset fallback navigation", map[string]interface{}{
		"target": target.String(),
	})
	return n.navigate(target.String())
}
