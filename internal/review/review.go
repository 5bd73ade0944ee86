// Package review implements the user decisions on drafted matches.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/events"
	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/logger"
	"github.com/spigell/job-triage/internal/store"
)

// SubmittedToManual marks approvals recorded by the user rather than sent
// to an employer.
const SubmittedToManual = "manual_approval"

// Edits optionally replaces parts of the draft on approval.
type Edits struct {
	CoverLetter *string           `json:"coverLetter,omitempty"`
	Answers     map[string]string `json:"answers,omitempty"`
}

func (e Edits) empty() bool {
	return e.CoverLetter == nil && e.Answers == nil
}

// Item is a match together with its draft. Draft is nil for matches that
// were never promoted.
type Item struct {
	Match *jobs.Match `json:"match"`
	Draft *jobs.Draft `json:"draft,omitempty"`
}

type Service struct {
	store     store.Store
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func New(st store.Store, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		store:     st,
		publisher: publisher,
		logger:    logger.OrNop(log),
		now:       time.Now,
	}
}

// Get returns the user's match with its draft.
func (s *Service) Get(ctx context.Context, userID, matchID string) (*Item, error) {
	m, err := s.store.GetMatch(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}
	return s.withDraft(ctx, m)
}

// List returns the user's matches with drafts. An empty status lists all.
func (s *Service) List(ctx context.Context, userID string, status jobs.Status) ([]*Item, error) {
	matches, err := s.store.ListMatches(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}

	items := make([]*Item, 0, len(matches))
	for _, m := range matches {
		item, err := s.withDraft(ctx, m)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Pending lists matches waiting on a user decision, best score first.
func (s *Service) Pending(ctx context.Context, userID string) ([]*Item, error) {
	items, err := s.List(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	pending := items[:0]
	for _, item := range items {
		if jobs.IsReviewable(item.Match.Status) {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

func (s *Service) withDraft(ctx context.Context, m *jobs.Match) (*Item, error) {
	d, err := s.store.GetDraft(ctx, m.ID)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		return &Item{Match: m}, nil
	case err != nil:
		return nil, fmt.Errorf("loading draft for %s: %w", m.ID, err)
	}
	return &Item{Match: m, Draft: d}, nil
}

// Approve marks the match applied. Draft edits and the audit record are best
// effort and never fail the approval.
func (s *Service) Approve(ctx context.Context, userID, matchID string, edits Edits) (*jobs.Match, error) {
	m, err := s.transition(ctx, userID, matchID, jobs.StatusApplied, nil)
	if err != nil {
		return nil, err
	}
	log := logger.WithMatch(logger.WithRun(s.logger, userID, ""), m.ID)

	if !edits.empty() {
		if err := s.store.UpdateDraft(ctx, m.ID, edits.CoverLetter, edits.Answers); err != nil {
			log.Warn("updating draft failed", zap.Error(err))
		}
	}

	now := s.now().UTC()
	audit := &jobs.SubmissionEvent{
		MatchID:     m.ID,
		SubmittedTo: SubmittedToManual,
		Payload: map[string]any{
			"approved_at": now.Format(time.RFC3339),
			"user_id":     userID,
		},
	}
	if err := s.store.AppendEvent(ctx, audit); err != nil {
		log.Warn("recording submission event failed", zap.Error(err))
	}

	events.Emit(ctx, s.publisher, log, events.Event{
		Type:    events.MatchApplied,
		UserID:  userID,
		MatchID: m.ID,
		At:      now,
	})
	log.Info("match approved")
	return m, nil
}

// Skip moves the match to skipped. A non-empty reason replaces the stored
// reasons with {"skip_reason": reason}.
func (s *Service) Skip(ctx context.Context, userID, matchID, reason string) (*jobs.Match, error) {
	var reasons map[string]any
	if reason = strings.TrimSpace(reason); reason != "" {
		reasons = map[string]any{"skip_reason": reason}
	}

	m, err := s.transition(ctx, userID, matchID, jobs.StatusSkipped, reasons)
	if err != nil {
		return nil, err
	}
	log := logger.WithMatch(logger.WithRun(s.logger, userID, ""), m.ID)

	payload := map[string]any{}
	if reason != "" {
		payload["reason"] = reason
	}
	events.Emit(ctx, s.publisher, log, events.Event{
		Type:    events.MatchSkipped,
		UserID:  userID,
		MatchID: m.ID,
		Payload: payload,
	})
	log.Info("match skipped", zap.String("reason", reason))
	return m, nil
}

func (s *Service) transition(ctx context.Context, userID, matchID string, to jobs.Status, reasons map[string]any) (*jobs.Match, error) {
	m, err := s.store.GetMatch(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}

	if !jobs.IsTransitionAllowed(jobs.ActorUser, m.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", jobs.ErrForbiddenTransition, m.Status, to)
	}

	if err := s.store.UpdateMatchStatus(ctx, m.ID, m.Status, to, reasons); err != nil {
		return nil, fmt.Errorf("updating match %s: %w", m.ID, err)
	}

	m.Status = to
	if reasons != nil {
		m.Reasons = reasons
	}
	return m, nil
}
