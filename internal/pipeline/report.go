package pipeline

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

const (
	StepCollect = "collect"
	StepScore   = "score"
	StepDraft   = "draft"
)

// Step is one observable stage of a run.
type Step struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Status  StepStatus `json:"status"`
	Message string     `json:"message,omitempty"`
	Count   int        `json:"count"`
}

type Summary struct {
	JobsCollected int   `json:"jobsCollected"`
	MatchesScored int   `json:"matchesScored"`
	DraftsCreated int   `json:"draftsCreated"`
	DurationMs    int64 `json:"durationMs"`

	CorpusInserted   int      `json:"corpusInserted"`
	Promoted         int      `json:"promoted"`
	FallbackPromoted int      `json:"fallbackPromoted"`
	NeedsReview      int      `json:"needsReview"`
	Errors           []string `json:"errors"`
}

// Report is returned by every run, including failed ones, so callers can
// render partial progress.
type Report struct {
	RunID   string  `json:"runId"`
	UserID  string  `json:"userId"`
	Steps   []*Step `json:"steps"`
	Summary Summary `json:"summary"`
}

func newReport(runID, userID string) *Report {
	return &Report{
		RunID:  runID,
		UserID: userID,
		Steps: []*Step{
			{ID: StepCollect, Name: "Collecting job postings", Status: StepPending},
			{ID: StepScore, Name: "Matching jobs to profile", Status: StepPending},
			{ID: StepDraft, Name: "Generating application drafts", Status: StepPending},
		},
		Summary: Summary{Errors: []string{}},
	}
}

// Step returns the step with id, or nil.
func (r *Report) Step(id string) *Step {
	for _, s := range r.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Failed reports whether any step failed.
func (r *Report) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			return true
		}
	}
	return false
}
