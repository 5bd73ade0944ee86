package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spigell/job-triage/internal/jobs"
)

func (s *Store) CreateDraft(ctx context.Context, d *jobs.Draft) error {
	answers, err := marshalJSON(answersOrEmpty(d.Answers))
	if err != nil {
		return fmt.Errorf("encoding answers: %w", err)
	}
	notes, err := marshalJSON(d.Notes)
	if err != nil {
		return fmt.Errorf("encoding tailoring notes: %w", err)
	}

	id := uuid.NewString()
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO application_drafts (id, job_match_id, cover_letter, answers_json, tailoring_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (job_match_id) DO NOTHING`,
		id, d.MatchID, d.CoverLetter, answers, notes, formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("creating draft: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("creating draft: %w", err)
	}
	if n == 0 {
		return jobs.ErrDraftExists
	}

	d.ID, d.CreatedAt, d.UpdatedAt = id, now, now
	return nil
}

func (s *Store) GetDraft(ctx context.Context, matchID string) (*jobs.Draft, error) {
	var (
		d                    jobs.Draft
		answers, notes       string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, job_match_id, cover_letter, answers_json, tailoring_notes, created_at, updated_at
		FROM application_drafts WHERE job_match_id = ?`, matchID,
	).Scan(&d.ID, &d.MatchID, &d.CoverLetter, &answers, &notes, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting draft: %w", err)
	}

	d.Answers = map[string]string{}
	if err := unmarshalJSON(answers, &d.Answers); err != nil {
		return nil, fmt.Errorf("decoding answers: %w", err)
	}
	if err := unmarshalJSON(notes, &d.Notes); err != nil {
		return nil, fmt.Errorf("decoding tailoring notes: %w", err)
	}
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

func (s *Store) UpdateDraft(ctx context.Context, matchID string, coverLetter *string, answers map[string]string) error {
	var encoded sql.NullString
	if answers != nil {
		raw, err := marshalJSON(answers)
		if err != nil {
			return fmt.Errorf("encoding answers: %w", err)
		}
		encoded = sql.NullString{String: raw, Valid: true}
	}
	var letter sql.NullString
	if coverLetter != nil {
		letter = sql.NullString{String: *coverLetter, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE application_drafts
		SET cover_letter = COALESCE(?, cover_letter),
		    answers_json = COALESCE(?, answers_json),
		    updated_at = ?
		WHERE job_match_id = ?`,
		letter, encoded, formatTime(s.now()), matchID,
	)
	if err != nil {
		return fmt.Errorf("updating draft: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating draft: %w", err)
	}
	if n == 0 {
		return jobs.ErrNotFound
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, e *jobs.SubmissionEvent) error {
	payload, err := marshalJSON(reasonsOrEmpty(e.Payload))
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	id := uuid.NewString()
	now := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submission_events (id, job_match_id, submitted_to, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, e.MatchID, e.SubmittedTo, payload, formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}

	e.ID, e.CreatedAt = id, now
	return nil
}

func (s *Store) ListEvents(ctx context.Context, matchID string) ([]*jobs.SubmissionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_match_id, submitted_to, payload, created_at
		FROM submission_events WHERE job_match_id = ? ORDER BY created_at, rowid`, matchID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	out := make([]*jobs.SubmissionEvent, 0)
	for rows.Next() {
		var (
			e                  jobs.SubmissionEvent
			payload, createdAt string
		)
		if err := rows.Scan(&e.ID, &e.MatchID, &e.SubmittedTo, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		if err := unmarshalJSON(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("decoding payload: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func answersOrEmpty(a map[string]string) map[string]string {
	if a == nil {
		return map[string]string{}
	}
	return a
}
