// internal/diagnosis/matching/client.go
package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonhttp "talent-diagnosis/internal/common/http"
	"talent-diagnosis/internal/common/logger"
	"talent-diagnosis/internal/common/metrics"
	"talent-diagnosis/internal/models"
)

const submitPath = "/api/matching"

// APIError is a scoring-service failure. Its text is the session-level
// error string rendered on the results error panel.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API Error: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("API Error: %s", e.Message)
}

// Client converts form state into the scoring request, performs the call
// and maps the response back. It never re-ranks or re-scores, and it is
// not safe to retry silently: repeated calls may return different
// rankings.
type Client struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		http:   commonhttp.NewClient(config.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "matching"}),
	}
}

// Submit sends one scoring request. On failure the returned error is an
// *APIError whose text becomes the session error string; the caller folds
// it into an errored DiagnosisSession rather than propagating it.
func (c *Client) Submit(ctx context.Context, input models.FormInput) (*models.DiagnosisSession, error) {
	req := matchRequest{
		Industry:           input.Industry,
		TargetSegment:      input.TargetSegment,
		Purpose:            input.Purpose,
		Budget:             input.Budget,
		CompanyName:        input.CompanyName,
		ContactName:        input.ContactName,
		Email:              input.Email,
		Phone:              input.Phone,
		HasGenrePreference: input.HasGenrePreference,
		Genres:             input.Genres,
	}

	start := time.Now()
	status, raw, err := c.http.PostJSON(ctx, c.config.BaseURL+submitPath, req)
	metrics.MatchingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Error("scoring request failed", map[string]interface{}{
			"error": err,
		})
		return nil, &APIError{Message: err.Error()}
	}

	if status < 200 || status >= 300 {
		var body errorBody
		if jsonErr := json.Unmarshal(raw, &body); jsonErr == nil && body.ErrorMessage != "" {
			return nil, &APIError{Code: body.ErrorCode, Message: body.ErrorMessage}
		}
		return nil, &APIError{Message: fmt.Sprintf("status %d: %s", status, string(raw))}
	}

	var resp matchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("malformed response: %v", err)}
	}

	// Transport succeeded but the service reported failure.
	if !resp.Success {
		if resp.ErrorMessage != "" {
			return nil, &APIError{Code: resp.ErrorCode, Message: resp.ErrorMessage}
		}
		return nil, &APIError{Message: "scoring service reported failure"}
	}

	results := make([]models.MatchResult, 0, len(resp.Results))
	for _, item := range resp.Results {
		results = append(results, models.MatchResult{
			ID:            item.ID,
			Name:          item.Name,
			Kana:          item.Kana,
			Category:      item.Category,
			CompanyName:   item.CompanyName,
			Score:         item.Score,
			Rank:          item.Rank,
			IsRecommended: item.IsRecommended,
			IsCompetitor:  item.IsCompetitor,
		})
	}

	c.logger.Info("scoring completed", map[string]interface{}{
		"sessionId":    resp.SessionID,
		"totalResults": resp.TotalResults,
	})

	return &models.DiagnosisSession{
		FormInput: input,
		Results:   results,
		SessionID: resp.SessionID,
	}, nil
}
