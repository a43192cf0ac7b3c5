package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"talent-diagnosis/internal/common/logger"
	"talent-diagnosis/internal/diagnosis/codec"
	"talent-diagnosis/internal/diagnosis/matching"
	"talent-diagnosis/internal/diagnosis/talents"
	"talent-diagnosis/internal/diagnosis/tracking"
	"talent-diagnosis/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestServer(t *testing.T, matcher Matcher) (*httptest.Server, *testPipeline) {
	t.Helper()
	p := newTestPipeline(t, matcher)

	collab := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/talents/1/details" {
			json.NewEncoder(w).Encode(talents.Detail{ID: 1, Name: "Talent A"})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(collab.Close)

	log := logger.NewTestLogger(t)
	handler := NewHandler(
		p.service,
		tracking.NewClient(collab.URL, time.Second, log),
		talents.NewClient(collab.URL, time.Second, log),
		log,
	)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, p
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func startWizard(t *testing.T, serverURL string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, serverURL+"/api/diagnosis/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var token string
	require.NoError(t, json.Unmarshal(body["token"], &token))
	require.NotEmpty(t, token)
	return token
}

// ==========================
// Wizard Flow Tests
// ==========================

func TestHandler_FullFlow(t *testing.T) {
	matcher := &mockMatcher{
		SubmitFunc: func(_ context.Context, input models.FormInput) (*models.DiagnosisSession, error) {
			return scoredSession(input), nil
		},
	}
	server, _ := newTestServer(t, matcher)
	token := startWizard(t, server.URL)
	base := server.URL + "/api/diagnosis/sessions/" + token

	resp, _ := doJSON(t, http.MethodPost, base+"/input", validInput())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state string
	for state != "submitting" {
		resp, body := doJSON(t, http.MethodPost, base+"/next", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.Unmarshal(body["state"], &state))
	}

	resp, body := doJSON(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var results []models.MatchResult
	require.NoError(t, json.Unmarshal(body["results"], &results))
	assert.Len(t, results, 2)

	resp, body = doJSON(t, http.MethodGet, base+"/result", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session models.DiagnosisSession
	require.NoError(t, json.Unmarshal(body["session"], &session))
	assert.Len(t, session.Results, 2)
	assert.Equal(t, "session-1", session.SessionID)
}

func TestHandler_ValidationFailureIs422(t *testing.T) {
	server, _ := newTestServer(t, &mockMatcher{})
	token := startWizard(t, server.URL)
	base := server.URL + "/api/diagnosis/sessions/" + token

	// Terms not accepted: the first forward transition is blocked.
	resp, body := doJSON(t, http.MethodPost, base+"/next", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var field string
	require.NoError(t, json.Unmarshal(body["field"], &field))
	assert.Equal(t, "termsAccepted", field)
}

func TestHandler_BackFromFirstStepIs409(t *testing.T) {
	server, _ := newTestServer(t, &mockMatcher{})
	token := startWizard(t, server.URL)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/diagnosis/sessions/"+token+"/back", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandler_UnknownTokenIs404(t *testing.T) {
	server, _ := newTestServer(t, &mockMatcher{})

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/diagnosis/sessions/unknown/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/diagnosis/sessions/unknown/result", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ==========================
// Result Transport Tests
// ==========================

func TestHandler_ResultFromURLPayload(t *testing.T) {
	server, _ := newTestServer(t, &mockMatcher{})
	token := startWizard(t, server.URL)

	payload, err := codec.EncodeForURL(scoredSession(validInput()))
	require.NoError(t, err)

	target := server.URL + "/api/diagnosis/sessions/" + token + "/result?" +
		codec.QueryParam + "=" + url.QueryEscape(payload)
	resp, body := doJSON(t, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session models.DiagnosisSession
	require.NoError(t, json.Unmarshal(body["session"], &session))
	assert.Len(t, session.Results, 2)
	// PII never travels through the URL.
	assert.Empty(t, session.FormInput.Email)

	var location string
	require.NoError(t, json.Unmarshal(body["location"], &location))
	assert.NotContains(t, location, codec.QueryParam+"=")
}

func TestHandler_MalformedURLPayloadIs404(t *testing.T) {
	server, _ := newTestServer(t, &mockMatcher{})
	token := startWizard(t, server.URL)

	target := server.URL + "/api/diagnosis/sessions/" + token + "/result?" + codec.QueryParam + "=%7Bbroken"
	resp, _ := doJSON(t, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_ErroredSessionIs200WithErrorField(t *testing.T) {
	matcher := &mockMatcher{
		SubmitFunc: func(_ context.Context, _ models.FormInput) (*models.DiagnosisSession, error) {
			return nil, &matching.APIError{Code: "E1", Message: "bad input"}
		},
	}
	server, _ := newTestServer(t, matcher)
	token := startWizard(t, server.URL)
	base := server.URL + "/api/diagnosis/sessions/" + token

	doJSON(t, http.MethodPost, base+"/input", validInput())
	var state string
	for state != "submitting" {
		_, body := doJSON(t, http.MethodPost, base+"/next", nil)
		require.NoError(t, json.Unmarshal(body["state"], &state))
	}
	doJSON(t, http.MethodPost, base+"/submit", nil)

	// A stored scoring error is still a session: 200 with the error
	// string, not the 404 no-session route.
	resp, body := doJSON(t, http.MethodGet, base+"/result", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session models.DiagnosisSession
	require.NoError(t, json.Unmarshal(body["session"], &session))
	assert.Equal(t, "API Error: bad input (E1)", session.Error)
	assert.Empty(t, session.Results)
}

// ==========================
// Lifecycle & Collaborator Tests
// ==========================

func TestHandler_Reset(t *testing.T) {
	server, p := newTestServer(t, &mockMatcher{})
	token := startWizard(t, server.URL)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/diagnosis/sessions/"+token+"/reset", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	msgs := p.messenger.recorded()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "diagnosis_reset", msgs[len(msgs)-1].Type)
}

func TestHandler_TrackClickAlwaysAccepted(t *testing.T) {
	server, _ := newTestServer(t, &mockMatcher{})

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/track-button-click", map[string]string{
		"session_id":  "session-1",
		"button_type": "result_detail",
		"button_text": "詳細を見る",
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Even garbage is accepted; tracking never blocks.
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/track-button-click", bytes.NewBufferString("{{"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusAccepted, raw.StatusCode)
}

func TestHandler_TalentDetails(t *testing.T) {
	server, _ := newTestServer(t, &mockMatcher{})

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/talents/1/details?target_segment_id=seg-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var name string
	require.NoError(t, json.Unmarshal(body["name"], &name))
	assert.Equal(t, "Talent A", name)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/talents/abc/details", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
