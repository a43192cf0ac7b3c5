package store

import (
	"context"
	"testing"

	"talent-diagnosis/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Session Repository Tests
// ==========================

func TestSessionRepository_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		session *models.DiagnosisSession
	}{
		{
			name: "successful session",
			session: &models.DiagnosisSession{
				FormInput: models.FormInput{Industry: "食品", CompanyName: "テスト株式会社"},
				Results: []models.MatchResult{
					{ID: 1, Name: "Talent A", Score: 95.0, Rank: 1, IsRecommended: true},
					{ID: 2, Name: "Talent B", Score: 90.0, Rank: 2, IsRecommended: true},
				},
				SessionID: "session-1",
			},
		},
		{
			name: "errored session",
			session: &models.DiagnosisSession{
				FormInput: models.FormInput{Industry: "食品"},
				Results:   []models.MatchResult{},
				Error:     "API Error: bad input (E1)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewMemoryStore()
			repo := NewSessionRepository(mem)
			ctx := context.Background()

			require.NoError(t, repo.Save(ctx, "tok-1", tt.session))

			loaded, err := repo.Load(ctx, "tok-1")
			require.NoError(t, err)
			assert.Equal(t, tt.session, loaded)
		})
	}
}

func TestSessionRepository_LoadMissing(t *testing.T) {
	repo := NewSessionRepository(NewMemoryStore())

	_, err := repo.Load(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepository_SaveWritesAllKeys(t *testing.T) {
	mem := NewMemoryStore()
	repo := NewSessionRepository(mem)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "tok-1", &models.DiagnosisSession{
		Results:   []models.MatchResult{},
		SessionID: "session-1",
	}))

	assert.Equal(t, len(SessionKeys), mem.Len())
	for _, key := range SessionKeys {
		_, err := mem.Get(ctx, "tok-1", key)
		assert.NoError(t, err, "key %s should be written", key)
	}
}

func TestSessionRepository_TokensAreIsolated(t *testing.T) {
	mem := NewMemoryStore()
	repo := NewSessionRepository(mem)
	ctx := context.Background()

	first := &models.DiagnosisSession{Results: []models.MatchResult{{ID: 1, Rank: 1}}, SessionID: "s1"}
	second := &models.DiagnosisSession{Results: []models.MatchResult{{ID: 2, Rank: 1}}, SessionID: "s2"}

	require.NoError(t, repo.Save(ctx, "tok-1", first))
	require.NoError(t, repo.Save(ctx, "tok-2", second))
	require.NoError(t, mem.Clear(ctx, "tok-1"))

	_, err := repo.Load(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)

	loaded, err := repo.Load(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}
