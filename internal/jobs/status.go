// Match status state machine.
//
//	            fallback promotion
//	skipped ───────────────────────► drafted ──► needs_review
//	   ▲                               │  │            │  │
//	   │                               │  └──► applied ◄──┘ │
//	   └───────────── user skip ───────┴────────────────────┘
//
// skipped and applied are terminal for user actions. The pipeline owns
// skipped → drafted and drafted → needs_review, users own the rest.
package jobs

import "fmt"

// Status values mirror the job_matches.status column.
type Status string

const (
	StatusDrafted     Status = "drafted"
	StatusSkipped     Status = "skipped"
	StatusNeedsReview Status = "needs_review"
	StatusApplied     Status = "applied"
)

// Actor identifies who requests a status change.
type Actor string

const (
	ActorPipeline Actor = "pipeline"
	ActorUser     Actor = "user"
)

var pipelineTransitions = map[Status][]Status{
	StatusSkipped: {StatusDrafted},
	StatusDrafted: {StatusNeedsReview},
}

var userTransitions = map[Status][]Status{
	StatusDrafted:     {StatusApplied, StatusSkipped},
	StatusNeedsReview: {StatusApplied, StatusSkipped},
}

// ParseStatus converts a raw string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusDrafted, StatusSkipped, StatusNeedsReview, StatusApplied:
		return st, nil
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

// InitialStatus is the status a match is created with.
func InitialStatus(score, threshold int) Status {
	if score >= threshold {
		return StatusDrafted
	}
	return StatusSkipped
}

// IsTransitionAllowed reports whether actor may move a match from → to.
func IsTransitionAllowed(actor Actor, from, to Status) bool {
	table := userTransitions
	if actor == ActorPipeline {
		table = pipelineTransitions
	}
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsReviewable is true for matches waiting on a user decision.
func IsReviewable(s Status) bool {
	return s == StatusDrafted || s == StatusNeedsReview
}
