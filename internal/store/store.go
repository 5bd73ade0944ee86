// Package store declares the persistence contracts shared by the memory,
// sqlite and postgres backends.
package store

import (
	"context"

	"github.com/spigell/job-triage/internal/jobs"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// PostingStore is the job corpus. URL is unique.
type PostingStore interface {
	// InsertPosting stores p unless its URL already exists. inserted is false
	// for duplicates, which are never updated.
	InsertPosting(ctx context.Context, p *jobs.Posting) (inserted bool, err error)
	GetPosting(ctx context.Context, id string) (*jobs.Posting, error)
	// ListUnmatchedPostings returns postings without a match for userID, newest first.
	ListUnmatchedPostings(ctx context.Context, userID string) ([]*jobs.Posting, error)
}

// CandidateStore keeps profiles, resumes and preferences per user.
type CandidateStore interface {
	// GetCandidate never returns ErrNotFound: unknown users yield an empty candidate.
	GetCandidate(ctx context.Context, userID string) (*jobs.Candidate, error)
	SaveProfile(ctx context.Context, userID string, p jobs.Profile) error
	AddResume(ctx context.Context, userID, text string) (*jobs.Resume, error)
	SavePreferences(ctx context.Context, userID string, p jobs.Preferences) error
}

// MatchStore is the match ledger. (user, posting) is unique.
type MatchStore interface {
	// CreateMatch returns jobs.ErrAlreadyMatched when the pair exists.
	CreateMatch(ctx context.Context, m *jobs.Match) error
	// GetMatch returns jobs.ErrNotFound for missing matches and matches of other users.
	GetMatch(ctx context.Context, userID, id string) (*jobs.Match, error)
	// ListMatches returns the user's matches with postings, best score first.
	// An empty status lists everything.
	ListMatches(ctx context.Context, userID string, status jobs.Status) ([]*jobs.Match, error)
	// UpdateMatchStatus moves id from → to and returns jobs.ErrStatusConflict
	// when the current status is not from. Nil reasons keep the stored value.
	UpdateMatchStatus(ctx context.Context, id string, from, to jobs.Status, reasons map[string]any) error
}

type DraftStore interface {
	// CreateDraft returns jobs.ErrDraftExists when the match already has one.
	CreateDraft(ctx context.Context, d *jobs.Draft) error
	GetDraft(ctx context.Context, matchID string) (*jobs.Draft, error)
	// UpdateDraft replaces the cover letter when non-nil and the answers when non-nil.
	UpdateDraft(ctx context.Context, matchID string, coverLetter *string, answers map[string]string) error
}

type EventStore interface {
	AppendEvent(ctx context.Context, e *jobs.SubmissionEvent) error
	ListEvents(ctx context.Context, matchID string) ([]*jobs.SubmissionEvent, error)
}

type Store interface {
	PostingStore
	CandidateStore
	MatchStore
	DraftStore
	EventStore

	Ping(ctx context.Context) error
	Close() error
}
