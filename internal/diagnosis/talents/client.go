// Package talents looks up detail for one selected candidate. It shares
// the MatchResult identifier space but is otherwise independent of the
// pipeline; a lookup failure degrades the detail view, nothing else.
package talents

import (
	"context"
	"fmt"
	"net/url"
	"time"

	commonhttp "talent-diagnosis/internal/common/http"
	"talent-diagnosis/internal/common/logger"
)

// Detail is the enrichment payload for one candidate.
type Detail struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Kana         string   `json:"kana"`
	Category     string   `json:"category"`
	CompanyName  string   `json:"company_name"`
	Profile      string   `json:"profile"`
	ImageURL     string   `json:"image_url"`
	Achievements []string `json:"achievements"`
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
		logger:  log.WithFields(map[string]interface{}{"component": "talents"}),
	}
}

// GetDetails fetches one candidate's detail, scoped to the audience
// segment the diagnosis ran against.
func (c *Client) GetDetails(ctx context.Context, id int64, targetSegmentID string) (*Detail, error) {
	endpoint := fmt.Sprintf("%s/api/talents/%d/details", c.baseURL, id)
	if targetSegmentID != "" {
		endpoint += "?target_segment_id=" + url.QueryEscape(targetSegmentID)
	}

	var detail Detail
	if err := c.http.GetJSON(ctx, endpoint, &detail); err != nil {
		c.logger.Warn("talent detail lookup failed", map[string]interface{}{
			"talentId": id,
			"error":    err,
		})
		return nil, err
	}
	return &detail, nil
}
