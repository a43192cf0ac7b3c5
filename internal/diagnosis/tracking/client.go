// Package tracking correlates button clicks with a scoring session. It is
// a collaborator, not part of the pipeline: failures are logged and
// swallowed, and a click is never allowed to block navigation.
package tracking

import (
	"context"
	"time"

	commonhttp "talent-diagnosis/internal/common/http"
	"talent-diagnosis/internal/common/logger"
)

const trackPath = "/api/track-button-click"

type clickEvent struct {
	SessionID  string `json:"session_id"`
	ButtonType string `json:"button_type"`
	ButtonText string `json:"button_text"`
}

type Client struct {
	baseURL string
	http    *commonhttp.Client
	logger  logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    commonhttp.NewClient(timeout),
		logger:  log.WithFields(map[string]interface{}{"component": "tracking"}),
	}
}

// TrackButtonClick reports one click. Fire-and-forget: the error return
// exists only so tests can assert on it; callers ignore it.
func (c *Client) TrackButtonClick(ctx context.Context, sessionID, buttonType, buttonText string) error {
	status, raw, err := c.http.PostJSON(ctx, c.baseURL+trackPath, clickEvent{
		SessionID:  sessionID,
		ButtonType: buttonType,
		ButtonText: buttonText,
	})
	if err != nil {
		c.logger.Debug("click tracking failed", map[string]interface{}{
			"buttonType": buttonType,
			"error":      err,
		})
		return err
	}
	if status < 200 || status >= 300 {
		c.logger.Debug("click tracking rejected", map[string]interface{}{
			"buttonType": buttonType,
			"status":     status,
			"body":       string(raw),
		})
	}
	return nil
}
