package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spigell/job-triage/internal/jobs"
)

const matchSelect = `
	SELECT jm.id, jm.user_id, jm.job_post_id, jm.fit_score, jm.status, jm.reasons, jm.created_at, jm.updated_at,
	       jp.id, jp.url, jp.title, jp.company, jp.location, jp.description, jp.source, jp.date_posted, jp.created_at
	FROM job_matches jm
	JOIN job_posts jp ON jp.id = jm.job_post_id`

func (s *Store) CreateMatch(ctx context.Context, m *jobs.Match) error {
	reasons, err := marshalJSON(reasonsOrEmpty(m.Reasons))
	if err != nil {
		return fmt.Errorf("encoding reasons: %w", err)
	}

	id := uuid.NewString()
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO job_matches (id, user_id, job_post_id, fit_score, status, reasons, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, job_post_id) DO NOTHING`,
		id, m.UserID, m.PostingID, m.FitScore, string(m.Status), reasons, formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("creating match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("creating match: %w", err)
	}
	if n == 0 {
		return jobs.ErrAlreadyMatched
	}

	m.ID, m.CreatedAt, m.UpdatedAt = id, now, now
	return nil
}

func (s *Store) GetMatch(ctx context.Context, userID, id string) (*jobs.Match, error) {
	row := s.db.QueryRowContext(ctx, matchSelect+` WHERE jm.id = ? AND jm.user_id = ?`, id, userID)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting match: %w", err)
	}
	return m, nil
}

func (s *Store) ListMatches(ctx context.Context, userID string, status jobs.Status) ([]*jobs.Match, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = s.db.QueryContext(ctx, matchSelect+` WHERE jm.user_id = ? AND jm.status = ? ORDER BY jm.fit_score DESC, jm.rowid`, userID, string(status))
	} else {
		rows, err = s.db.QueryContext(ctx, matchSelect+` WHERE jm.user_id = ? ORDER BY jm.fit_score DESC, jm.rowid`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	out := make([]*jobs.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMatchStatus(ctx context.Context, id string, from, to jobs.Status, reasons map[string]any) error {
	var (
		res sql.Result
		err error
	)
	now := formatTime(s.now())
	if reasons != nil {
		encoded, encErr := marshalJSON(reasons)
		if encErr != nil {
			return fmt.Errorf("encoding reasons: %w", encErr)
		}
		res, err = s.db.ExecContext(ctx,
			`UPDATE job_matches SET status = ?, reasons = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(to), encoded, now, id, string(from))
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE job_matches SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(to), now, id, string(from))
	}
	if err != nil {
		return fmt.Errorf("updating match status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating match status: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM job_matches WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return jobs.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking match: %w", err)
	}
	return jobs.ErrStatusConflict
}

func scanMatch(row scanner) (*jobs.Match, error) {
	var (
		m                    jobs.Match
		p                    jobs.Posting
		status, reasons      string
		createdAt, updatedAt string
		datePosted           sql.NullString
		postingCreatedAt     string
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.PostingID, &m.FitScore, &status, &reasons, &createdAt, &updatedAt,
		&p.ID, &p.URL, &p.Title, &p.Company, &p.Location, &p.Description, &p.Source, &datePosted, &postingCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Status = jobs.Status(status)
	if err := unmarshalJSON(reasons, &m.Reasons); err != nil {
		return nil, fmt.Errorf("decoding reasons: %w", err)
	}
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)

	if datePosted.Valid {
		p.PostedAt = parseTime(datePosted.String)
	}
	p.CreatedAt = parseTime(postingCreatedAt)
	m.Posting = &p
	return &m, nil
}

func reasonsOrEmpty(r map[string]any) map[string]any {
	if r == nil {
		return map[string]any{}
	}
	return r
}
