package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talent-diagnosis/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_TrackButtonClick(t *testing.T) {
	var captured clickEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, trackPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, logger.NewTestLogger(t))
	err := c.TrackButtonClick(context.Background(), "session-1", "result_detail", "詳細を見る")

	assert.NoError(t, err)
	assert.Equal(t, "session-1", captured.SessionID)
	assert.Equal(t, "result_detail", captured.ButtonType)
	assert.Equal(t, "詳細を見る", captured.ButtonText)
}

func TestClient_TrackButtonClick_ServerErrorSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, logger.NewTestLogger(t))

	// Non-2xx is logged, not returned.
	assert.NoError(t, c.TrackButtonClick(context.Background(), "session-1", "reset", "最初からやり直す"))
}

func TestClient_TrackButtonClick_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := NewClient(server.URL, time.Second, logger.NewTestLogger(t))

	// The transport error surfaces for tests; callers discard it.
	assert.Error(t, c.TrackButtonClick(context.Background(), "session-1", "submit", "診断する"))
}
