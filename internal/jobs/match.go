package jobs

import (
	"math"
	"time"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Match is the ledger row pairing a user with a posting.
type Match struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	PostingID string         `json:"job_post_id"`
	FitScore  int            `json:"fit_score"`
	Status    Status         `json:"status"`
	Reasons   map[string]any `json:"reasons,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Posting is populated by listing queries that join the corpus.
	Posting *Posting `json:"posting,omitempty"`
}

// Draft holds the generated application material for a promoted match.
type Draft struct {
	ID          string            `json:"id"`
	MatchID     string            `json:"job_match_id"`
	CoverLetter string            `json:"cover_letter"`
	Answers     map[string]string `json:"answers_json"`
	Notes       TailoringNotes    `json:"tailoring_notes"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TailoringNotes is the free-form generation metadata stored next to a draft.
type TailoringNotes struct {
	GeneratedAt time.Time `json:"generated_at"`
	Confidence  float64   `json:"confidence"`
	Issues      []string  `json:"issues"`
	Model       string    `json:"model,omitempty"`
	Fallback    bool      `json:"fallback,omitempty"`
}

// SubmissionEvent is an audit entry appended when a match is acted upon.
type SubmissionEvent struct {
	ID          string         `json:"id"`
	MatchID     string         `json:"job_match_id"`
	SubmittedTo string         `json:"submitted_to"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ClampScore rounds to the nearest integer and clamps to [MinScore, MaxScore].
// NaN maps to MinScore.
func ClampScore(v float64) int {
	if math.IsNaN(v) {
		return MinScore
	}
	r := math.Round(v)
	if r < MinScore {
		return MinScore
	}
	if r > MaxScore {
		return MaxScore
	}
	return int(r)
}
