package api

import (
	"context"
	"sync"
	"testing"
	"time"

	stderrors "talent-diagnosis/internal/common/errors"
	"talent-diagnosis/internal/common/logger"
	"talent-diagnosis/internal/common/observability"
	"talent-diagnosis/internal/diagnosis/lifecycle"
	"talent-diagnosis/internal/diagnosis/matching"
	"talent-diagnosis/internal/diagnosis/notify"
	"talent-diagnosis/internal/diagnosis/store"
	"talent-diagnosis/internal/diagnosis/wizard"
	"talent-diagnosis/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockMatcher struct {
	SubmitFunc func(ctx context.Context, input models.FormInput) (*models.DiagnosisSession, error)
}

func (m *mockMatcher) Submit(ctx context.Context, input models.FormInput) (*models.DiagnosisSession, error) {
	return m.SubmitFunc(ctx, input)
}

type captureMessenger struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (m *captureMessenger) Post(_ context.Context, msg notify.Message) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return true, nil
}

func (m *captureMessenger) recorded() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message{}, m.messages...)
}

type testPipeline struct {
	service   *DiagnosisService
	store     *store.MemoryStore
	messenger *captureMessenger
}

func newTestPipeline(t *testing.T, matcher Matcher) *testPipeline {
	t.Helper()
	log := logger.NewTestLogger(t)
	mem := store.NewMemoryStore()
	messenger := &captureMessenger{}
	guard := lifecycle.NewGuard(mem, mem, log)
	notifier := notify.NewNotifier(messenger, 50*time.Millisecond, "https://example.com/diagnosis", func(string) error { return nil }, log)
	service := NewDiagnosisService(matcher, store.NewSessionRepository(mem), mem, guard, notifier, &observability.Observability{}, log)
	return &testPipeline{service: service, store: mem, messenger: messenger}
}

func validInput() models.FormInput {
	return models.FormInput{
		TermsAccepted:   true,
		Industry:        "食品",
		TargetSegment:   "男性20-34歳",
		Purpose:         "商品サービスの知名度アップ",
		Budget:          "500万円以下",
		CompanyName:     "テスト株式会社",
		ContactName:     "山田太郎",
		Email:           "taro@example.com",
		Phone:           "09012345678",
		PrivacyAccepted: true,
	}
}

func scoredSession(input models.FormInput) *models.DiagnosisSession {
	return &models.DiagnosisSession{
		FormInput: input,
		Results: []models.MatchResult{
			{ID: 1, Name: "Talent A", Score: 95.0, Rank: 1, IsRecommended: true},
			{ID: 2, Name: "Talent B", Score: 90.0, Rank: 2, IsRecommended: true},
		},
		SessionID: "session-1",
	}
}

// walkToSubmitting drives a fresh session through every step.
func walkToSubmitting(t *testing.T, p *testPipeline) string {
	t.Helper()
	ctx := context.Background()
	token, state := p.service.StartSession(ctx)
	require.Equal(t, wizard.StateTerms, state)

	_, err := p.service.MergeInput(ctx, token, validInput())
	require.NoError(t, err)

	for state != wizard.StateSubmitting {
		state, err = p.service.Next(ctx, token)
		require.NoError(t, err)
	}
	return token
}

// ==========================
// Full Pipeline Tests
// ==========================

func TestService_SubmitSuccess(t *testing.T) {
	matcher := &mockMatcher{
		SubmitFunc: func(_ context.Context, input models.FormInput) (*models.DiagnosisSession, error) {
			return scoredSession(input), nil
		},
	}
	p := newTestPipeline(t, matcher)
	ctx := context.Background()

	token := walkToSubmitting(t, p)
	session, err := p.service.Submit(ctx, token)
	require.NoError(t, err)
	assert.False(t, session.Errored())
	assert.True(t, session.RanksConsistent())

	// Machine reaches submitted either way.
	state, _, serr := p.service.SessionState(ctx, token)
	require.Nil(t, serr)
	assert.Equal(t, wizard.StateSubmitted, state)

	// Session is persisted and loadable for the results view.
	loaded, serr := p.service.LoadResult(ctx, token)
	require.Nil(t, serr)
	assert.Equal(t, session, loaded)

	// Draft is retired at submission.
	_, draftErr := p.store.LoadDraft(ctx, token)
	assert.ErrorIs(t, draftErr, store.ErrNotFound)

	// Both completion messages went to the host.
	msgs := p.messenger.recorded()
	require.Len(t, msgs, 2)
	assert.Equal(t, notify.TypeComplete, msgs[0].Type)
	assert.Equal(t, notify.TypeResultsReady, msgs[1].Type)
}

func TestService_SubmitScoringFailure(t *testing.T) {
	matcher := &mockMatcher{
		SubmitFunc: func(_ context.Context, _ models.FormInput) (*models.DiagnosisSession, error) {
			return nil, &matching.APIError{Code: "E1", Message: "bad input"}
		},
	}
	p := newTestPipeline(t, matcher)
	ctx := context.Background()

	token := walkToSubmitting(t, p)
	session, err := p.service.Submit(ctx, token)

	// The failure rides inside the session, it does not propagate.
	require.NoError(t, err)
	assert.Equal(t, "API Error: bad input (E1)", session.Error)
	assert.Empty(t, session.Results)

	state, _, serr := p.service.SessionState(ctx, token)
	require.Nil(t, serr)
	assert.Equal(t, wizard.StateSubmitted, state)

	loaded, serr := p.service.LoadResult(ctx, token)
	require.Nil(t, serr)
	assert.True(t, loaded.Errored())
}

func TestService_SubmitRequiresSubmittingState(t *testing.T) {
	p := newTestPipeline(t, &mockMatcher{})
	ctx := context.Background()

	token, _ := p.service.StartSession(ctx)
	_, err := p.service.Submit(ctx, token)

	var serr *stderrors.StandardError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, stderrors.ErrCodeStepLocked, serr.Code)
}

// ==========================
// Session Lookup Tests
// ==========================

func TestService_UnknownTokenIsNoSession(t *testing.T) {
	p := newTestPipeline(t, &mockMatcher{})

	_, _, serr := p.service.SessionState(context.Background(), "nope")
	require.NotNil(t, serr)
	assert.Equal(t, stderrors.ErrCodeNoSession, serr.Code)

	_, serr = p.service.LoadResult(context.Background(), "nope")
	require.NotNil(t, serr)
	assert.Equal(t, stderrors.ErrCodeNoSession, serr.Code)
}

func TestService_MachineRestoredFromDraft(t *testing.T) {
	p := newTestPipeline(t, &mockMatcher{})
	ctx := context.Background()

	token, _ := p.service.StartSession(ctx)
	_, err := p.service.MergeInput(ctx, token, validInput())
	require.NoError(t, err)
	state, err := p.service.Next(ctx, token)
	require.NoError(t, err)
	require.Equal(t, wizard.StateIndustry, state)

	// Simulate process loss of the in-memory machine.
	p.service.mu.Lock()
	delete(p.service.machines, token)
	p.service.mu.Unlock()

	state, input, serr := p.service.SessionState(ctx, token)
	require.Nil(t, serr)
	assert.Equal(t, wizard.StateIndustry, state)
	assert.Equal(t, validInput(), input)
}

// ==========================
// Lifecycle Tests
// ==========================

func TestService_ResetPurgesSession(t *testing.T) {
	matcher := &mockMatcher{
		SubmitFunc: func(_ context.Context, input models.FormInput) (*models.DiagnosisSession, error) {
			return scoredSession(input), nil
		},
	}
	p := newTestPipeline(t, matcher)
	ctx := context.Background()

	token := walkToSubmitting(t, p)
	_, err := p.service.Submit(ctx, token)
	require.NoError(t, err)

	require.NoError(t, p.service.Reset(ctx, token))

	_, serr := p.service.LoadResult(ctx, token)
	require.NotNil(t, serr)
	assert.Equal(t, stderrors.ErrCodeNoSession, serr.Code)

	// Reset message reached the host.
	msgs := p.messenger.recorded()
	assert.Equal(t, notify.TypeReset, msgs[len(msgs)-1].Type)
}

func TestService_ColdStartPurgesStaleData(t *testing.T) {
	p := newTestPipeline(t, &mockMatcher{})
	ctx := context.Background()

	token, _ := p.service.StartSession(ctx)
	_, err := p.service.MergeInput(ctx, token, validInput())
	require.NoError(t, err)

	_, err = p.store.LoadDraft(ctx, token)
	require.NoError(t, err)

	// A second session never sees the first one's keys.
	other, _ := p.service.StartSession(ctx)
	assert.NotEqual(t, token, other)
	_, serr := p.service.LoadResult(ctx, other)
	assert.Equal(t, stderrors.ErrCodeNoSession, serr.Code)
}

func TestService_UnloadDropsMachine(t *testing.T) {
	matcher := &mockMatcher{
		SubmitFunc: func(_ context.Context, input models.FormInput) (*models.DiagnosisSession, error) {
			return scoredSession(input), nil
		},
	}
	p := newTestPipeline(t, matcher)
	ctx := context.Background()

	token := walkToSubmitting(t, p)
	_, err := p.service.Submit(ctx, token)
	require.NoError(t, err)

	p.service.Unload(ctx, token)

	_, serr := p.service.LoadResult(ctx, token)
	require.NotNil(t, serr)
	assert.Equal(t, stderrors.ErrCodeNoSession, serr.Code)
}
