package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spigell/job-triage/internal/jobs"
)

const postingColumns = `id, url, title, company, location, description, source, date_posted, created_at`

func (s *Store) InsertPosting(ctx context.Context, p *jobs.Posting) (bool, error) {
	url := jobs.CanonicalURL(p.URL)
	id := uuid.NewString()
	now := s.now()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO job_posts (`+postingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING`,
		id, url, p.Title, p.Company, p.Location, p.Description, p.Source,
		nullableTime(p.PostedAt), formatTime(now),
	)
	if err != nil {
		return false, fmt.Errorf("inserting posting: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting posting: %w", err)
	}
	if n == 0 {
		if err := s.db.QueryRowContext(ctx, `SELECT id FROM job_posts WHERE url = ?`, url).Scan(&p.ID); err != nil {
			return false, fmt.Errorf("reading existing posting: %w", err)
		}
		return false, nil
	}

	p.ID, p.URL, p.CreatedAt = id, url, now
	return true, nil
}

func (s *Store) GetPosting(ctx context.Context, id string) (*jobs.Posting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postingColumns+` FROM job_posts WHERE id = ?`, id)
	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting posting: %w", err)
	}
	return p, nil
}

func (s *Store) ListUnmatchedPostings(ctx context.Context, userID string) ([]*jobs.Posting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postingColumns+`
		FROM job_posts jp
		WHERE NOT EXISTS (
			SELECT 1 FROM job_matches jm WHERE jm.job_post_id = jp.id AND jm.user_id = ?
		)
		ORDER BY jp.created_at DESC, jp.rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing unmatched postings: %w", err)
	}
	defer rows.Close()

	out := make([]*jobs.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosting(row scanner) (*jobs.Posting, error) {
	var (
		p          jobs.Posting
		datePosted sql.NullString
		createdAt  string
	)
	if err := row.Scan(&p.ID, &p.URL, &p.Title, &p.Company, &p.Location, &p.Description, &p.Source, &datePosted, &createdAt); err != nil {
		return nil, err
	}
	if datePosted.Valid {
		p.PostedAt = parseTime(datePosted.String)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}
