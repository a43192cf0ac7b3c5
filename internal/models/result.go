package models

// MatchResult is one ranked candidate returned by the scoring service.
// A result batch is produced atomically from one response and immutable
// afterwards.
type MatchResult struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Kana          string  `json:"kana,omitempty"`
	Category      string  `json:"category,omitempty"`
	CompanyName   string  `json:"companyName,omitempty"`
	Score         float64 `json:"score"`
	Rank          int     `json:"rank"`
	IsRecommended bool    `json:"isRecommended"`
	IsCompetitor  bool    `json:"isCompetitor"`
}

// RecommendedRankCutoff is the highest rank still flagged as recommended
// when the flag has to be reconstructed from a compact payload.
const RecommendedRankCutoff = 3

// DiagnosisSession is the aggregate carried through the pipeline: the
// frozen form input, the ranked results, an error string when the scoring
// call failed, and the service-assigned session identifier used for
// click-tracking correlation.
type DiagnosisSession struct {
	FormInput FormInput     `json:"formInput"`
	Results   []MatchResult `json:"results"`
	Error     string        `json:"error,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
}

// Errored reports whether the session recorded a scoring failure.
func (s *DiagnosisSession) Errored() bool {
	return s.Error != ""
}

// RanksConsistent reports whether ranks are unique, 1..N, and align with
// non-increasing score order.
func (s *DiagnosisSession) RanksConsistent() bool {
	seen := make(map[int]bool, len(s.Results))
	for _, r := range s.Results {
		if r.Rank < 1 || r.Rank > len(s.Results) || seen[r.Rank] {
			return false
		}
		seen[r.Rank] = true
	}
	byRank := make([]MatchResult, len(s.Results))
	for _, r := range s.Results {
		byRank[r.Rank-1] = r
	}
	for i := 1; i < len(byRank); i++ {
		if byRank[i].Score > byRank[i-1].Score {
			return false
		}
	}
	return true
}
