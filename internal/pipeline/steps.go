package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/corpus"
	"github.com/spigell/job-triage/internal/drafting"
	"github.com/spigell/job-triage/internal/events"
	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/scoring"
)

func (p *Pipeline) collect(ctx context.Context, r *run) (int, string, error) {
	if p.seeder != nil {
		res, err := corpus.NewSyncer(p.seeder, p.store, r.logger).Sync(ctx)
		if err != nil {
			return 0, "", fmt.Errorf("syncing corpus: %w", err)
		}
		r.report.Summary.CorpusInserted = res.Inserted
	}

	postings, err := p.store.ListUnmatchedPostings(ctx, r.userID)
	if err != nil {
		return 0, "", fmt.Errorf("listing unmatched postings: %w", err)
	}

	r.postings = postings
	r.report.Summary.JobsCollected = len(postings)

	if len(postings) == 0 {
		r.finished = true
		return 0, "No new job postings since the last run", nil
	}
	return len(postings), fmt.Sprintf("Found %d new job postings", len(postings)), nil
}

func (p *Pipeline) score(ctx context.Context, r *run) (int, string, error) {
	for _, posting := range r.postings {
		if err := ctx.Err(); err != nil {
			return len(r.created), "", err
		}

		assessment := p.scorer.Score(ctx, scoring.InputFor(r.candidate, posting))
		if err := ctx.Err(); err != nil {
			return len(r.created), "", err
		}

		m := &jobs.Match{
			UserID:    r.userID,
			PostingID: posting.ID,
			FitScore:  assessment.Score,
			Status:    jobs.InitialStatus(assessment.Score, p.cfg.Threshold),
			Reasons:   assessment.Reasons,
		}

		err := p.store.CreateMatch(ctx, m)
		switch {
		case errors.Is(err, jobs.ErrAlreadyMatched):
			r.logger.Info("posting already matched", zap.String("url", posting.URL))
			continue
		case err != nil:
			r.recordError(fmt.Sprintf("Match error for %s: %v", posting.Label(), err))
			continue
		}

		m.Posting = posting
		r.created = append(r.created, m)
		if m.Status == jobs.StatusDrafted {
			r.promoted = append(r.promoted, m)
		}

		r.logger.Debug("posting scored",
			zap.String("url", posting.URL),
			zap.Int("fit_score", m.FitScore),
			zap.String("status", string(m.Status)),
			zap.Bool("fallback", assessment.Fallback),
		)
	}

	scored := len(r.created)
	r.report.Summary.MatchesScored = scored

	if scored == 0 {
		r.finished = true
		return 0, "No matches were created", nil
	}

	if len(r.promoted) > 0 {
		r.report.Summary.Promoted = len(r.promoted)
		return scored, fmt.Sprintf("Matched %d jobs to your profile, %d above threshold", scored, len(r.promoted)), nil
	}

	forced := p.promoteFallback(ctx, r)
	r.report.Summary.FallbackPromoted = forced
	r.report.Summary.Promoted = len(r.promoted)
	return scored, fmt.Sprintf("Matched %d jobs to your profile, none above threshold, promoted top %d", scored, forced), nil
}

func (p *Pipeline) draft(ctx context.Context, r *run) (int, string, error) {
	questions := p.drafter.Questions()
	created := 0

	for _, m := range r.promoted {
		if err := ctx.Err(); err != nil {
			return created, "", err
		}

		result := p.drafter.Draft(ctx, drafting.InputFor(r.candidate, m.Posting, questions))
		if err := ctx.Err(); err != nil {
			return created, "", err
		}

		d := &jobs.Draft{
			MatchID:     m.ID,
			CoverLetter: result.CoverLetter,
			Answers:     result.Answers,
			Notes:       result.Notes(),
		}
		if err := p.store.CreateDraft(ctx, d); err != nil {
			if errors.Is(err, jobs.ErrDraftExists) {
				r.logger.Info("draft already exists", zap.String("match_id", m.ID))
				continue
			}
			r.recordError(fmt.Sprintf("Draft error for %s: %v", m.Posting.Label(), err))
			continue
		}
		created++

		if result.NeedsReview() {
			if err := p.store.UpdateMatchStatus(ctx, m.ID, jobs.StatusDrafted, jobs.StatusNeedsReview, nil); err != nil {
				r.recordError(fmt.Sprintf("Review flag error for %s: %v", m.Posting.Label(), err))
			} else {
				m.Status = jobs.StatusNeedsReview
				r.report.Summary.NeedsReview++
			}
		}

		events.Emit(ctx, p.publisher, r.logger, events.Event{
			Type:    events.DraftCreated,
			UserID:  r.userID,
			RunID:   r.id,
			MatchID: m.ID,
			Payload: map[string]any{
				"confidence":  result.Confidence,
				"needsReview": result.NeedsReview(),
				"fallback":    result.Fallback,
			},
		})
	}

	r.report.Summary.DraftsCreated = created
	return created, fmt.Sprintf("Generated %d application drafts", created), nil
}
