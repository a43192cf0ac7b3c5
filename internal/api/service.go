// Package api exposes the diagnosis pipeline over HTTP. The service layer
// owns the live wizard machines; handlers stay thin and translate between
// wire shapes and pipeline calls.
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	stderrors "talent-diagnosis/internal/common/errors"
	"talent-diagnosis/internal/common/logger"
	"talent-diagnosis/internal/common/metrics"
	"talent-diagnosis/internal/common/observability"
	"talent-diagnosis/internal/diagnosis/lifecycle"
	"talent-diagnosis/internal/diagnosis/notify"
	"talent-diagnosis/internal/diagnosis/store"
	"talent-diagnosis/internal/diagnosis/wizard"
	"talent-diagnosis/internal/models"

	"github.com/google/uuid"
)

// Matcher is the scoring dependency, defined here so tests can mock the
// remote service.
type Matcher interface {
	Submit(ctx context.Context, input models.FormInput) (*models.DiagnosisSession, error)
}

// DiagnosisService drives a diagnosis from first step to stored result.
// One wizard machine lives per session token; all transitions for a token
// are serialized under the service mutex, mirroring the single-writer
// assumption the stores are built on.
type DiagnosisService struct {
	matcher    Matcher
	repository *store.SessionRepository
	drafts     store.DraftStore
	guard      *lifecycle.Guard
	notifier   *notify.Notifier
	obs        *observability.Observability
	logger     logger.Logger

	mu       sync.Mutex
	machines map[string]*wizard.Machine
}

func NewDiagnosisService(
	matcher Matcher,
	repository *store.SessionRepository,
	drafts store.DraftStore,
	guard *lifecycle.Guard,
	notifier *notify.Notifier,
	obs *observability.Observability,
	log logger.Logger,
) *DiagnosisService {
	return &DiagnosisService{
		matcher:    matcher,
		repository: repository,
		drafts:     drafts,
		guard:      guard,
		notifier:   notifier,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"component": "api"}),
		machines:   make(map[string]*wizard.Machine),
	}
}

// StartSession opens a fresh diagnosis: a new token, an unconditional
// purge of anything a previous life of that token might have left, and a
// machine at the first step.
func (s *DiagnosisService) StartSession(ctx context.Context) (token string, state wizard.State) {
	token = uuid.New().String()
	s.guard.ColdStart(ctx, token)

	machine := wizard.NewMachine(s.logger)
	s.mu.Lock()
	s.machines[token] = machine
	s.mu.Unlock()

	s.logger.Info("diagnosis session started", map[string]interface{}{
		"token": token,
	})
	return token, machine.State()
}

// machine returns the live machine for token, restoring it from a stored
// draft if the process lost it.
func (s *DiagnosisService) machine(ctx context.Context, token string) (*wizard.Machine, *stderrors.StandardError) {
	s.mu.Lock()
	m, ok := s.machines[token]
	s.mu.Unlock()
	if ok {
		return m, nil
	}

	payload, err := s.drafts.LoadDraft(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, stderrors.NewNoSessionError()
		}
		return nil, stderrors.NewDraftLoadFailedError(err)
	}

	m, restoreErr := wizard.RestoreMachine(payload, s.logger)
	if restoreErr != nil {
		return nil, stderrors.NewDraftLoadFailedError(restoreErr)
	}

	s.mu.Lock()
	s.machines[token] = m
	s.mu.Unlock()
	s.guard.Register(token)
	return m, nil
}

// SessionState reports the current step and accumulated input.
func (s *DiagnosisService) SessionState(ctx context.Context, token string) (wizard.State, models.FormInput, *stderrors.StandardError) {
	m, serr := s.machine(ctx, token)
	if serr != nil {
		return "", models.FormInput{}, serr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return m.State(), m.Input(), nil
}

// MergeInput folds partial form input into the session and refreshes the
// draft.
func (s *DiagnosisService) MergeInput(ctx context.Context, token string, in models.FormInput) (wizard.State, error) {
	m, serr := s.machine(ctx, token)
	if serr != nil {
		return "", serr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := m.Merge(in); err != nil {
		return m.State(), stderrors.NewStepLockedError(string(m.State()))
	}
	s.saveDraft(ctx, token, m)
	return m.State(), nil
}

// Next advances the wizard one step; the step's validation guard runs
// first and a failure leaves the machine untouched.
func (s *DiagnosisService) Next(ctx context.Context, token string) (wizard.State, error) {
	m, serr := s.machine(ctx, token)
	if serr != nil {
		return "", serr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := m.Next(); err != nil {
		return m.State(), err
	}
	s.saveDraft(ctx, token, m)
	return m.State(), nil
}

// Back steps backwards without touching entered data.
func (s *DiagnosisService) Back(ctx context.Context, token string) (wizard.State, error) {
	m, serr := s.machine(ctx, token)
	if serr != nil {
		return "", serr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := m.Back(); err != nil {
		return m.State(), err
	}
	s.saveDraft(ctx, token, m)
	return m.State(), nil
}

// Submit runs the scoring call for a session frozen in submitting. The
// outcome, errored or not, is persisted, the machine reaches submitted,
// the host is notified, and the draft is retired: the diagnosis is done
// either way, the only recovery from a scoring failure is start over.
func (s *DiagnosisService) Submit(ctx context.Context, token string) (*models.DiagnosisSession, error) {
	m, serr := s.machine(ctx, token)
	if serr != nil {
		return nil, serr
	}

	s.mu.Lock()
	if m.State() != wizard.StateSubmitting {
		state := m.State()
		s.mu.Unlock()
		return nil, stderrors.NewStepLockedError(string(state))
	}
	input := m.Input()
	s.mu.Unlock()

	start := time.Now()
	session, err := s.matcher.Submit(ctx, input)
	if err != nil {
		// Scoring failures ride inside the session as its error string;
		// they never propagate past the wizard.
		session = &models.DiagnosisSession{
			FormInput: input,
			Results:   []models.MatchResult{},
			Error:     err.Error(),
		}
	}

	outcome := "success"
	if session.Errored() {
		outcome = "error"
	}
	metrics.DiagnosesSubmitted.WithLabelValues(outcome).Inc()
	s.obs.RecordDiagnosis(ctx, outcome)
	s.obs.RecordDuration(ctx, time.Since(start), outcome)

	if err := s.repository.Save(ctx, token, session); err != nil {
		s.logger.Error("session persist failed", map[string]interface{}{
			"token": token,
			"error": err,
		})
		return nil, stderrors.NewStoreWriteFailedError(store.KeyResults, err)
	}

	s.mu.Lock()
	if err := m.Complete(); err != nil {
		s.logger.Warn("complete transition rejected", map[string]interface{}{
			"token": token,
			"state": string(m.State()),
		})
	}
	s.mu.Unlock()

	s.notifier.NotifyComplete(ctx, session)

	if err := s.drafts.DeleteDraft(ctx, token); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("draft cleanup failed", map[string]interface{}{
			"token": token,
			"error": err,
		})
	}

	return session, nil
}

// LoadResult reads the stored session for the results view. Absence is
// the no-session condition, distinct from a stored scoring error.
func (s *DiagnosisService) LoadResult(ctx context.Context, token string) (*models.DiagnosisSession, *stderrors.StandardError) {
	session, err := s.repository.Load(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, stderrors.NewNoSessionError()
		}
		return nil, stderrors.NewStoreReadFailedError(store.KeyResults, err)
	}
	return session, nil
}

// Reset tears the session down on the user's start-over action and runs
// the host reset protocol.
func (s *DiagnosisService) Reset(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.machines, token)
	s.mu.Unlock()

	s.guard.HandleReset(ctx, token)
	return s.notifier.Reset(ctx)
}

// Hidden purges the session's ephemeral keys when its tab backgrounds.
func (s *DiagnosisService) Hidden(ctx context.Context, token string) {
	s.guard.HandleHidden(ctx, token)
}

// Unload purges everything when the session's tab is discarded.
func (s *DiagnosisService) Unload(ctx context.Context, token string) {
	s.mu.Lock()
	delete(s.machines, token)
	s.mu.Unlock()

	s.guard.HandleUnload(ctx, token)
}

func (s *DiagnosisService) saveDraft(ctx context.Context, token string, m *wizard.Machine) {
	if m.Frozen() {
		return
	}
	payload, err := m.MarshalDraft()
	if err != nil {
		s.logger.Warn("draft marshal failed", map[string]interface{}{
			"token": token,
			"error": err,
		})
		return
	}
	if err := s.drafts.SaveDraft(ctx, token, payload); err != nil {
		s.logger.Warn("draft save failed", map[string]interface{}{
			"token": token,
			"error": err,
		})
	}
}
