// Package codec serializes a diagnosis session for transport and storage.
// The same logical object has two wire forms: a verbose one for same-tab
// storage and a compact, PII-stripped one small enough to ride in a URL.
// Decode dispatches on a structural marker rather than inferring the form
// from where the payload came from.
package codec

import (
	"encoding/json"
	"errors"

	"talent-diagnosis/internal/models"
)

// QueryParam is the single query parameter carrying an encoded payload.
const QueryParam = "result"

// ErrNoSession is the hard "no session" condition: a malformed payload or
// no payload at all. It routes to an empty-state view, never to the error
// panel.
var ErrNoSession = errors.New("no diagnosis session")

// compactResult is one result tuple in the compact form. Keys are one or
// two letters to keep the URL short.
type compactResult struct {
	ID          int64   `json:"i"`
	Name        string  `json:"n"`
	Kana        string  `json:"k,omitempty"`
	Category    string  `json:"c,omitempty"`
	CompanyName *string `json:"cn"`
	Score       float64 `json:"s"`
	Rank        int     `json:"rk"`
}

// compactForm carries only what the results view needs. Contact name,
// email, phone and genre detail are omitted on purpose: they must never
// appear in a URL.
type compactForm struct {
	Industry      string `json:"i"`
	TargetSegment string `json:"t"`
	Purpose       string `json:"p"`
	Budget        string `json:"b"`
	CompanyName   string `json:"cn"`
}

type compactSession struct {
	Results []compactResult `json:"r"`
	Form    *compactForm    `json:"f,omitempty"`
}

// EncodeForStorage renders the verbose form: a direct structural encoding
// of the whole session with no field loss.
func EncodeForStorage(session *models.DiagnosisSession) (string, error) {
	raw, err := json.Marshal(session)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// EncodeForURL renders the compact form. The recommendation flag is not
// carried; it is reconstructed from the rank on decode.
func EncodeForURL(session *models.DiagnosisSession) (string, error) {
	compact := compactSession{
		Results: make([]compactResult, 0, len(session.Results)),
	}
	for _, r := range session.Results {
		item := compactResult{
			ID:       r.ID,
			Name:     r.Name,
			Kana:     r.Kana,
			Category: r.Category,
			Score:    r.Score,
			Rank:     r.Rank,
		}
		if r.CompanyName != "" {
			name := r.CompanyName
			item.CompanyName = &name
		}
		compact.Results = append(compact.Results, item)
	}
	compact.Form = &compactForm{
		Industry:      session.FormInput.Industry,
		TargetSegment: session.FormInput.TargetSegment,
		Purpose:       session.FormInput.Purpose,
		Budget:        session.FormInput.Budget,
		CompanyName:   session.FormInput.CompanyName,
	}

	raw, err := json.Marshal(compact)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode reconstructs a session from either wire form. The compact form is
// recognized by its renamed top-level keys (r/f); anything else is assumed
// verbose. A payload that is not valid JSON, or valid JSON in neither
// shape, yields ErrNoSession rather than a distinct failure.
func Decode(payload string) (*models.DiagnosisSession, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return nil, ErrNoSession
	}

	if _, compact := probe["r"]; compact {
		return decodeCompact(payload)
	}
	if _, compact := probe["f"]; compact {
		return decodeCompact(payload)
	}
	if _, verbose := probe["results"]; verbose {
		return decodeVerbose(payload)
	}
	if _, verbose := probe["formInput"]; verbose {
		return decodeVerbose(payload)
	}
	return nil, ErrNoSession
}

func decodeVerbose(payload string) (*models.DiagnosisSession, error) {
	var session models.DiagnosisSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, ErrNoSession
	}
	return &session, nil
}

func decodeCompact(payload string) (*models.DiagnosisSession, error) {
	if err := validateCompact(payload); err != nil {
		return nil, ErrNoSession
	}

	var compact compactSession
	if err := json.Unmarshal([]byte(payload), &compact); err != nil {
		return nil, ErrNoSession
	}

	session := &models.DiagnosisSession{
		Results: make([]models.MatchResult, 0, len(compact.Results)),
	}
	for _, item := range compact.Results {
		result := models.MatchResult{
			ID:            item.ID,
			Name:          item.Name,
			Kana:          item.Kana,
			Category:      item.Category,
			Score:         item.Score,
			Rank:          item.Rank,
			IsRecommended: item.Rank > 0 && item.Rank <= models.RecommendedRankCutoff,
		}
		if item.CompanyName != nil {
			result.CompanyName = *item.CompanyName
		}
		session.Results = append(session.Results, result)
	}

	// The omitted personal fields come back as empty strings, never as
	// whatever the wizard originally collected.
	if compact.Form != nil {
		session.FormInput = models.FormInput{
			Industry:      compact.Form.Industry,
			TargetSegment: compact.Form.TargetSegment,
			Purpose:       compact.Form.Purpose,
			Budget:        compact.Form.Budget,
			CompanyName:   compact.Form.CompanyName,
		}
	}
	return session, nil
}
