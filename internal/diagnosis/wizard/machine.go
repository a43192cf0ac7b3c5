// Package wizard drives the multi-step diagnosis input flow as an explicit
// state machine: every transition is an entry in a state/event table with
// its own guard predicate, so illegal moves cannot happen by accident.
package wizard

import (
	"encoding/json"
	"fmt"

	"talent-diagnosis/internal/common/logger"
	"talent-diagnosis/internal/models"
)

// State is one wizard step or terminal pseudo-state.
type State string

const (
	StateTerms       State = "terms"
	StateIndustry    State = "industry"
	StateAudience    State = "audience"
	StatePurpose     State = "purpose"
	StateBudget      State = "budget"
	StateCompanyInfo State = "company-info"
	StatePrivacy     State = "privacy"
	StateSubmitting  State = "submitting"
	StateSubmitted   State = "submitted"
)

// Steps is the fixed ordered sequence of input steps.
var Steps = []State{
	StateTerms,
	StateIndustry,
	StateAudience,
	StatePurpose,
	StateBudget,
	StateCompanyInfo,
	StatePrivacy,
}

// Event is a wizard input event.
type Event string

const (
	EventNext     Event = "next"
	EventBack     Event = "back"
	EventComplete Event = "complete"
)

var (
	// ErrIllegalTransition is returned for an event the current state has
	// no table entry for.
	ErrIllegalTransition = fmt.Errorf("illegal wizard transition")
)

type transition struct {
	to    State
	guard func(*models.FormInput) error
}

// transitions is the full state × event table. Guards run before the
// state changes; a guard failure leaves the machine untouched.
var transitions = map[State]map[Event]transition{
	StateTerms: {
		EventNext: {to: StateIndustry, guard: validateTerms},
	},
	StateIndustry: {
		EventNext: {to: StateAudience, guard: validateIndustry},
		EventBack: {to: StateTerms},
	},
	StateAudience: {
		EventNext: {to: StatePurpose, guard: validateAudience},
		EventBack: {to: StateIndustry},
	},
	StatePurpose: {
		EventNext: {to: StateBudget, guard: validatePurpose},
		EventBack: {to: StateAudience},
	},
	StateBudget: {
		EventNext: {to: StateCompanyInfo, guard: validateBudget},
		EventBack: {to: StatePurpose},
	},
	StateCompanyInfo: {
		EventNext: {to: StatePrivacy, guard: validateCompanyInfo},
		EventBack: {to: StateBudget},
	},
	StatePrivacy: {
		EventNext: {to: StateSubmitting, guard: validatePrivacy},
		EventBack: {to: StateCompanyInfo},
	},
	StateSubmitting: {
		EventComplete: {to: StateSubmitted},
	},
}

// Machine owns the FormInput exclusively until submission. Entering
// submitting freezes the input; only a full reset starts over.
type Machine struct {
	state  State
	input  models.FormInput
	logger logger.Logger
}

func NewMachine(log logger.Logger) *Machine {
	return &Machine{
		state:  StateTerms,
		logger: log.WithFields(map[string]interface{}{"component": "wizard"}),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Input returns a snapshot of the accumulated form input.
func (m *Machine) Input() models.FormInput {
	return m.input
}

// Frozen reports whether input no longer accepts changes.
func (m *Machine) Frozen() bool {
	return m.state == StateSubmitting || m.state == StateSubmitted
}

// Merge folds non-empty fields of in into the accumulated input. The
// record is append-only: zero values never erase entered data.
func (m *Machine) Merge(in models.FormInput) error {
	if m.Frozen() {
		return fmt.Errorf("%w: input frozen in state %s", ErrIllegalTransition, m.state)
	}
	if in.TermsAccepted {
		m.input.TermsAccepted = true
	}
	if in.Industry != "" {
		m.input.Industry = in.Industry
	}
	if in.TargetSegment != "" {
		m.input.TargetSegment = in.TargetSegment
	}
	if in.Purpose != "" {
		m.input.Purpose = in.Purpose
	}
	if in.Budget != "" {
		m.input.Budget = in.Budget
	}
	if in.CompanyName != "" {
		m.input.CompanyName = in.CompanyName
	}
	if in.ContactName != "" {
		m.input.ContactName = in.ContactName
	}
	if in.Email != "" {
		m.input.Email = in.Email
	}
	if in.Phone != "" {
		m.input.Phone = in.Phone
	}
	if in.HasGenrePreference != "" {
		m.input.HasGenrePreference = in.HasGenrePreference
	}
	if len(in.Genres) > 0 {
		m.input.Genres = in.Genres
	}
	if in.PrivacyAccepted {
		m.input.PrivacyAccepted = true
	}
	return nil
}

// Next advances one step after the current step's guard passes. From the
// last step it enters submitting and freezes the input.
func (m *Machine) Next() error {
	return m.apply(EventNext)
}

// Back steps backwards without touching entered data. It is never allowed
// from the first step or after submission began.
func (m *Machine) Back() error {
	return m.apply(EventBack)
}

// Complete moves submitting to submitted. The caller records any scoring
// failure on the session itself; errors never keep the machine out of
// submitted.
func (m *Machine) Complete() error {
	return m.apply(EventComplete)
}

func (m *Machine) apply(ev Event) error {
	entry, ok := transitions[m.state][ev]
	if !ok {
		return fmt.Errorf("%w: %s in state %s", ErrIllegalTransition, ev, m.state)
	}
	if entry.guard != nil {
		if err := entry.guard(&m.input); err != nil {
			return err
		}
	}

	m.logger.Debug("wizard transition", map[string]interface{}{
		"from":  string(m.state),
		"event": string(ev),
		"to":    string(entry.to),
	})
	m.state = entry.to
	return nil
}

// snapshot is the draft-persistence form of a machine.
type snapshot struct {
	State State            `json:"state"`
	Input models.FormInput `json:"input"`
}

// MarshalDraft serializes the machine for the persistent draft store.
func (m *Machine) MarshalDraft() (string, error) {
	raw, err := json.Marshal(snapshot{State: m.state, Input: m.input})
	if err != nil {
		return "", fmt.Errorf("marshal draft: %w", err)
	}
	return string(raw), nil
}

// RestoreMachine rebuilds a machine from a stored draft. Terminal states
// are not restorable; a draft frozen mid-submission starts over.
func RestoreMachine(payload string, log logger.Logger) (*Machine, error) {
	var snap snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}

	valid := false
	for _, s := range Steps {
		if snap.State == s {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("draft state %q is not restorable", snap.State)
	}

	m := NewMachine(log)
	m.state = snap.State
	m.input = snap.Input
	return m, nil
}
