// internal/diagnosis/matching/models.go
package matching

// matchRequest is the scoring service's request shape. Field values pass
// through from the form untouched.
type matchRequest struct {
	Industry           string   `json:"industry"`
	TargetSegment      string   `json:"target_segment"`
	Purpose            string   `json:"purpose"`
	Budget             string   `json:"budget"`
	CompanyName        string   `json:"company_name"`
	ContactName        string   `json:"contact_name"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	HasGenrePreference string   `json:"has_genre_preference,omitempty"`
	Genres             []string `json:"genres,omitempty"`
}

type matchItem struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Kana          string  `json:"kana"`
	Category      string  `json:"category"`
	CompanyName   string  `json:"company_name"`
	Score         float64 `json:"score"`
	Rank          int     `json:"rank"`
	IsRecommended bool    `json:"is_recommended"`
	IsCompetitor  bool    `json:"is_competitor"`
}

type matchResponse struct {
	Success      bool        `json:"success"`
	TotalResults int         `json:"total_results"`
	Results      []matchItem `json:"results"`
	SessionID    string      `json:"session_id"`
	Timestamp    string      `json:"timestamp"`
	ErrorCode    string      `json:"error_code"`
	ErrorMessage string      `json:"error_message"`
}

// errorBody is the structured failure shape a non-2xx response may carry.
type errorBody struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}
