package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	stderrors "talent-diagnosis/internal/common/errors"
	"talent-diagnosis/internal/common/logger"
	"talent-diagnosis/internal/diagnosis/codec"
	"talent-diagnosis/internal/diagnosis/talents"
	"talent-diagnosis/internal/diagnosis/tracking"
	"talent-diagnosis/internal/diagnosis/wizard"
	"talent-diagnosis/internal/models"

	"github.com/go-chi/chi/v5"
)

// Handler wires the diagnosis service and its collaborators to HTTP.
type Handler struct {
	service *DiagnosisService
	tracker *tracking.Client
	talents *talents.Client
	logger  logger.Logger
}

func NewHandler(service *DiagnosisService, tracker *tracking.Client, talentClient *talents.Client, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		tracker: tracker,
		talents: talentClient,
		logger:  log.WithFields(map[string]interface{}{"component": "handler"}),
	}
}

// RegisterRoutes mounts the diagnosis API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/diagnosis", func(r chi.Router) {
		r.Post("/sessions", h.StartSession)
		r.Route("/sessions/{token}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/input", h.MergeInput)
			r.Post("/next", h.Next)
			r.Post("/back", h.Back)
			r.Post("/submit", h.Submit)
			r.Get("/result", h.GetResult)
			r.Post("/reset", h.Reset)
			r.Post("/hidden", h.Hidden)
			r.Post("/unload", h.Unload)
		})
	})
	r.Post("/api/track-button-click", h.TrackClick)
	r.Get("/api/talents/{id}/details", h.TalentDetails)
}

// StartSession opens a new diagnosis session and returns its token.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	token, state := h.service.StartSession(r.Context())
	JSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"state": state,
	})
}

// GetSession reports the session's step and accumulated input.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	state, input, serr := h.service.SessionState(r.Context(), token)
	if serr != nil {
		writeStandardError(w, serr)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"state": state,
		"input": input,
	})
}

// MergeInput folds partial form input into the session.
func (h *Handler) MergeInput(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var input models.FormInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	state, err := h.service.MergeInput(r.Context(), token, input)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

// Next advances the wizard one step.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	state, err := h.service.Next(r.Context(), token)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

// Back steps backwards.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	state, err := h.service.Back(r.Context(), token)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

// Submit runs the scoring call and persists the outcome. The response is
// always a session: a scoring failure arrives as an errored session with
// HTTP 200, because the diagnosis itself completed.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	session, err := h.service.Submit(r.Context(), token)
	if err != nil {
		var serr *stderrors.StandardError
		if errors.As(err, &serr) {
			writeStandardError(w, serr)
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, session)
}

// GetResult serves the results view. An encoded payload in the query wins
// over stored data; it is consumed exactly once and the response carries
// the stripped location the client must replace its own with. Absence of
// both is 404 NO_SESSION, routing to the empty state rather than the
// error panel.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if r.URL.Query().Get(codec.QueryParam) != "" {
		session, stripped, err := codec.ConsumeFromURL(r.URL)
		if err != nil {
			writeStandardError(w, stderrors.NewNoSessionError())
			return
		}
		JSON(w, http.StatusOK, map[string]interface{}{
			"session":  session,
			"location": stripped.RequestURI(),
		})
		return
	}

	session, serr := h.service.LoadResult(r.Context(), token)
	if serr != nil {
		writeStandardError(w, serr)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"session":  session,
		"location": r.URL.RequestURI(),
	})
}

// Reset tears the session down and runs the host reset protocol.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := h.service.Reset(r.Context(), token); err != nil {
		h.logger.Warn("reset fallback failed", map[string]interface{}{
			"token": token,
			"error": err,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

// Hidden purges ephemeral session data when the client tab backgrounds.
func (h *Handler) Hidden(w http.ResponseWriter, r *http.Request) {
	h.service.Hidden(r.Context(), chi.URLParam(r, "token"))
	w.WriteHeader(http.StatusNoContent)
}

// Unload purges everything when the client tab is discarded.
func (h *Handler) Unload(w http.ResponseWriter, r *http.Request) {
	h.service.Unload(r.Context(), chi.URLParam(r, "token"))
	w.WriteHeader(http.StatusNoContent)
}

// TrackClick forwards a click event to the correlation service. Always
// 202: tracking never blocks and never surfaces failures.
func (h *Handler) TrackClick(w http.ResponseWriter, r *http.Request) {
	var event struct {
		SessionID  string `json:"session_id"`
		ButtonType string `json:"button_type"`
		ButtonText string `json:"button_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	_ = h.tracker.TrackButtonClick(r.Context(), event.SessionID, event.ButtonType, event.ButtonText)
	w.WriteHeader(http.StatusAccepted)
}

// TalentDetails enriches one selected candidate.
func (h *Handler) TalentDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid talent id")
		return
	}

	detail, err := h.talents.GetDetails(r.Context(), id, r.URL.Query().Get("target_segment_id"))
	if err != nil {
		writeStandardError(w, stderrors.NewTalentLookupFailedError(id, err))
		return
	}
	JSON(w, http.StatusOK, detail)
}

// writeTransitionError maps wizard-level failures: validation errors are
// 422 with the field, frozen/illegal transitions are 409, everything else
// falls through to the standard error writer.
func (h *Handler) writeTransitionError(w http.ResponseWriter, err error) {
	var fieldErr *wizard.FieldError
	if errors.As(err, &fieldErr) {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"code":    stderrors.ErrCodeValidationFailed,
			"field":   fieldErr.Field,
			"message": fieldErr.Message,
		})
		return
	}
	if errors.Is(err, wizard.ErrIllegalTransition) {
		Error(w, http.StatusConflict, err.Error())
		return
	}
	var serr *stderrors.StandardError
	if errors.As(err, &serr) {
		writeStandardError(w, serr)
		return
	}
	Error(w, http.StatusInternalServerError, err.Error())
}

func writeStandardError(w http.ResponseWriter, serr *stderrors.StandardError) {
	status := http.StatusInternalServerError
	switch serr.Code {
	case stderrors.ErrCodeNoSession:
		status = http.StatusNotFound
	case stderrors.ErrCodeStepLocked:
		status = http.StatusConflict
	case stderrors.ErrCodeValidationFailed:
		status = http.StatusUnprocessableEntity
	case stderrors.ErrCodeTalentLookupFailed:
		status = http.StatusBadGateway
	}
	JSON(w, status, serr)
}

// JSON writes v as a JSON response.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a plain error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
