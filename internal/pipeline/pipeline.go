// Package pipeline runs collect, score and draft for one user and reports
// progress step by step.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/corpus"
	"github.com/spigell/job-triage/internal/drafting"
	"github.com/spigell/job-triage/internal/events"
	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/logger"
	"github.com/spigell/job-triage/internal/scoring"
	"github.com/spigell/job-triage/internal/store"
)

const (
	DefaultThreshold     = 70
	DefaultFallbackLimit = 3
)

type Config struct {
	// Threshold is the minimal fit score for a match to be drafted.
	Threshold int
	// FallbackLimit caps forced promotion when nothing clears Threshold.
	FallbackLimit int
}

func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold, FallbackLimit: DefaultFallbackLimit}
}

// Deps aggregates the collaborators of a pipeline.
type Deps struct {
	Store   store.Store
	Seeder  corpus.Seeder
	Scorer  *scoring.Scorer
	Drafter *drafting.Drafter
	// Publisher is optional.
	Publisher events.Publisher
	Logger    *zap.Logger
}

type Pipeline struct {
	cfg       Config
	store     store.Store
	seeder    corpus.Seeder
	scorer    *scoring.Scorer
	drafter   *drafting.Drafter
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func New(cfg Config, deps Deps) (*Pipeline, error) {
	if cfg.Threshold < 0 || cfg.Threshold > 100 {
		return nil, fmt.Errorf("threshold must be within [0, 100], got %d", cfg.Threshold)
	}
	if cfg.FallbackLimit <= 0 {
		cfg.FallbackLimit = DefaultFallbackLimit
	}
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Scorer == nil {
		return nil, errors.New("scorer is required")
	}
	if deps.Drafter == nil {
		return nil, errors.New("drafter is required")
	}

	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &Pipeline{
		cfg:       cfg,
		store:     deps.Store,
		seeder:    deps.Seeder,
		scorer:    deps.Scorer,
		drafter:   deps.Drafter,
		publisher: publisher,
		logger:    logger.OrNop(deps.Logger),
		now:       time.Now,
	}, nil
}

// run carries the state of a single invocation between stages.
type run struct {
	id        string
	userID    string
	candidate *jobs.Candidate
	report    *Report
	logger    *zap.Logger

	postings []*jobs.Posting
	created  []*jobs.Match
	promoted []*jobs.Match
	// finished short-circuits the remaining stages.
	finished bool
}

func (r *run) recordError(msg string) {
	r.logger.Warn("job skipped", zap.String("reason", msg))
	r.report.Summary.Errors = append(r.report.Summary.Errors, msg)
}

type stage struct {
	id    string
	apply func(ctx context.Context, r *run) (count int, message string, err error)
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{id: StepCollect, apply: p.collect},
		{id: StepScore, apply: p.score},
		{id: StepDraft, apply: p.draft},
	}
}

const msgNothingToProcess = "Skipped: no new job postings to process"

// Run executes the pipeline for userID. The report is returned together
// with any error. Precondition failures are *PreconditionError.
func (p *Pipeline) Run(ctx context.Context, userID string) (*Report, error) {
	started := p.now()
	userID = strings.TrimSpace(userID)
	runID := uuid.NewString()
	log := logger.WithRun(p.logger, userID, runID)

	report := newReport(runID, userID)
	defer func() {
		report.Summary.DurationMs = p.now().Sub(started).Milliseconds()
	}()

	if userID == "" {
		return report, errors.New("user id is required")
	}

	candidate, err := p.store.GetCandidate(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("loading candidate: %w", err)
	}
	if err := checkPreconditions(candidate); err != nil {
		log.Warn("pipeline precondition failed", zap.Error(err))
		return report, err
	}

	r := &run{
		id:        runID,
		userID:    userID,
		candidate: candidate,
		report:    report,
		logger:    log,
	}

	log.Info("pipeline started", zap.Int("threshold", p.cfg.Threshold))

	for _, s := range p.stages() {
		step := report.Step(s.id)
		if r.finished {
			step.Status = StepCompleted
			step.Message = msgNothingToProcess
			continue
		}

		step.Status = StepRunning
		count, msg, err := s.apply(ctx, r)
		step.Count = count
		step.Message = msg
		if err != nil {
			step.Status = StepFailed
			step.Message = err.Error()
			log.Error("pipeline step failed", zap.String("id", s.id), zap.Error(err))
			return report, fmt.Errorf("%s: %w", s.id, err)
		}
		step.Status = StepCompleted

		log.Info("pipeline step",
			zap.String("id", s.id),
			zap.Int("count", count),
			zap.String("message", msg),
		)
	}

	report.Summary.DurationMs = p.now().Sub(started).Milliseconds()
	log.Info("pipeline completed",
		zap.Int("jobs_collected", report.Summary.JobsCollected),
		zap.Int("matches_scored", report.Summary.MatchesScored),
		zap.Int("drafts_created", report.Summary.DraftsCreated),
		zap.Int("needs_review", report.Summary.NeedsReview),
		zap.Int("errors", len(report.Summary.Errors)),
	)

	events.Emit(ctx, p.publisher, log, events.Event{
		Type:   events.PipelineCompleted,
		UserID: userID,
		RunID:  runID,
		Payload: map[string]any{
			"jobsCollected": report.Summary.JobsCollected,
			"matchesScored": report.Summary.MatchesScored,
			"draftsCreated": report.Summary.DraftsCreated,
			"needsReview":   report.Summary.NeedsReview,
		},
	})

	return report, nil
}

func checkPreconditions(c *jobs.Candidate) error {
	if c.ResumeText() == "" {
		return &PreconditionError{Code: CodeMissingResume, Message: "Please upload a resume first"}
	}
	if !c.Preferences.HasRoles() {
		return &PreconditionError{Code: CodeMissingPreferences, Message: "Please set your job preferences first"}
	}
	return nil
}
