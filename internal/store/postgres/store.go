// Package postgres is the hosted relational store backed by pgxpool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "embed"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/store"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL, verifies the connection and applies the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ─── Postings ────────────────────────────────────────────────────────────────

const postingColumns = `jp.id, jp.url, jp.title, jp.company, jp.location, jp.description, jp.source, jp.date_posted, jp.created_at`

func (s *Store) InsertPosting(ctx context.Context, p *jobs.Posting) (bool, error) {
	url := jobs.CanonicalURL(p.URL)

	var postedAt *time.Time
	if !p.PostedAt.IsZero() {
		postedAt = &p.PostedAt
	}

	var (
		id        string
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx, `
		INSERT INTO job_posts (id, url, title, company, location, description, source, date_posted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (url) DO NOTHING
		RETURNING id, created_at`,
		uuid.NewString(), url, p.Title, p.Company, p.Location, p.Description, p.Source, postedAt,
	).Scan(&id, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		if err := s.pool.QueryRow(ctx, `SELECT id FROM job_posts WHERE url = $1`, url).Scan(&p.ID); err != nil {
			return false, fmt.Errorf("insertPosting existing: %w", err)
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insertPosting: %w", err)
	}

	p.ID, p.URL, p.CreatedAt = id, url, createdAt
	return true, nil
}

func (s *Store) GetPosting(ctx context.Context, id string) (*jobs.Posting, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postingColumns+` FROM job_posts jp WHERE jp.id = $1`, id)
	p, err := scanPosting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getPosting: %w", err)
	}
	return p, nil
}

func (s *Store) ListUnmatchedPostings(ctx context.Context, userID string) ([]*jobs.Posting, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+postingColumns+`
		FROM job_posts jp
		WHERE NOT EXISTS (
			SELECT 1 FROM job_matches jm WHERE jm.job_post_id = jp.id AND jm.user_id = $1
		)
		ORDER BY jp.created_at DESC, jp.seq DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listUnmatchedPostings query: %w", err)
	}
	defer rows.Close()

	out := make([]*jobs.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("listUnmatchedPostings scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPosting(row pgx.Row) (*jobs.Posting, error) {
	var (
		p        jobs.Posting
		postedAt *time.Time
	)
	if err := row.Scan(&p.ID, &p.URL, &p.Title, &p.Company, &p.Location, &p.Description, &p.Source, &postedAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	if postedAt != nil {
		p.PostedAt = *postedAt
	}
	return &p, nil
}

// ─── Candidates ──────────────────────────────────────────────────────────────

func (s *Store) GetCandidate(ctx context.Context, userID string) (*jobs.Candidate, error) {
	c := &jobs.Candidate{UserID: userID}

	err := s.pool.QueryRow(ctx, `
		SELECT full_name, email, phone, graduation_date, work_authorization, gender, race, other_info
		FROM profiles WHERE user_id = $1`, userID,
	).Scan(&c.Profile.FullName, &c.Profile.Email, &c.Profile.Phone, &c.Profile.GraduationDate,
		&c.Profile.WorkAuthorization, &c.Profile.Gender, &c.Profile.Race, &c.Profile.OtherInfo)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("getCandidate profile: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, resume_text, created_at FROM resumes WHERE user_id = $1 ORDER BY created_at, seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("getCandidate resumes: %w", err)
	}
	resumes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (jobs.Resume, error) {
		var r jobs.Resume
		err := row.Scan(&r.ID, &r.Text, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("getCandidate resumes scan: %w", err)
	}
	if len(resumes) > 0 {
		c.Resumes = resumes
	}

	err = s.pool.QueryRow(ctx, `
		SELECT roles, locations, keywords, avoid_keywords, remote_ok, sponsorship_needed, min_salary
		FROM preferences WHERE user_id = $1`, userID,
	).Scan(&c.Preferences.Roles, &c.Preferences.Locations, &c.Preferences.Keywords, &c.Preferences.AvoidKeywords,
		&c.Preferences.RemoteOK, &c.Preferences.SponsorshipNeeded, &c.Preferences.MinSalary)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("getCandidate preferences: %w", err)
	}

	return c, nil
}

func (s *Store) SaveProfile(ctx context.Context, userID string, p jobs.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, full_name, email, phone, graduation_date, work_authorization, gender, race, other_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			graduation_date = EXCLUDED.graduation_date,
			work_authorization = EXCLUDED.work_authorization,
			gender = EXCLUDED.gender,
			race = EXCLUDED.race,
			other_info = EXCLUDED.other_info,
			updated_at = NOW()`,
		userID, p.FullName, p.Email, p.Phone, p.GraduationDate, p.WorkAuthorization, p.Gender, p.Race, p.OtherInfo,
	)
	if err != nil {
		return fmt.Errorf("saveProfile: %w", err)
	}
	return nil
}

func (s *Store) AddResume(ctx context.Context, userID, text string) (*jobs.Resume, error) {
	r := &jobs.Resume{ID: uuid.NewString(), Text: text}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO resumes (id, user_id, resume_text) VALUES ($1, $2, $3) RETURNING created_at`,
		r.ID, userID, text,
	).Scan(&r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("addResume: %w", err)
	}
	return r, nil
}

func (s *Store) SavePreferences(ctx context.Context, userID string, p jobs.Preferences) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO preferences (user_id, roles, locations, keywords, avoid_keywords, remote_ok, sponsorship_needed, min_salary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			roles = EXCLUDED.roles,
			locations = EXCLUDED.locations,
			keywords = EXCLUDED.keywords,
			avoid_keywords = EXCLUDED.avoid_keywords,
			remote_ok = EXCLUDED.remote_ok,
			sponsorship_needed = EXCLUDED.sponsorship_needed,
			min_salary = EXCLUDED.min_salary,
			updated_at = NOW()`,
		userID, nonNil(p.Roles), nonNil(p.Locations), nonNil(p.Keywords), nonNil(p.AvoidKeywords),
		p.RemoteOK, p.SponsorshipNeeded, p.MinSalary,
	)
	if err != nil {
		return fmt.Errorf("savePreferences: %w", err)
	}
	return nil
}

// ─── Matches ─────────────────────────────────────────────────────────────────

const matchSelect = `
	SELECT jm.id, jm.user_id, jm.job_post_id, jm.fit_score, jm.status, jm.reasons, jm.created_at, jm.updated_at,
	       ` + postingColumns + `
	FROM job_matches jm
	JOIN job_posts jp ON jp.id = jm.job_post_id`

func (s *Store) CreateMatch(ctx context.Context, m *jobs.Match) error {
	reasons, err := json.Marshal(orEmpty(m.Reasons))
	if err != nil {
		return fmt.Errorf("createMatch encode reasons: %w", err)
	}

	var (
		id                   string
		createdAt, updatedAt time.Time
	)
	err = s.pool.QueryRow(ctx, `
		INSERT INTO job_matches (id, user_id, job_post_id, fit_score, status, reasons)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		ON CONFLICT (user_id, job_post_id) DO NOTHING
		RETURNING id, created_at, updated_at`,
		uuid.NewString(), m.UserID, m.PostingID, m.FitScore, string(m.Status), string(reasons),
	).Scan(&id, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return jobs.ErrAlreadyMatched
	}
	if err != nil {
		return fmt.Errorf("createMatch: %w", err)
	}

	m.ID, m.CreatedAt, m.UpdatedAt = id, createdAt, updatedAt
	return nil
}

func (s *Store) GetMatch(ctx context.Context, userID, id string) (*jobs.Match, error) {
	row := s.pool.QueryRow(ctx, matchSelect+` WHERE jm.id = $1 AND jm.user_id = $2`, id, userID)
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getMatch: %w", err)
	}
	return m, nil
}

func (s *Store) ListMatches(ctx context.Context, userID string, status jobs.Status) ([]*jobs.Match, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = s.pool.Query(ctx, matchSelect+` WHERE jm.user_id = $1 AND jm.status = $2 ORDER BY jm.fit_score DESC, jm.seq`, userID, string(status))
	} else {
		rows, err = s.pool.Query(ctx, matchSelect+` WHERE jm.user_id = $1 ORDER BY jm.fit_score DESC, jm.seq`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("listMatches query: %w", err)
	}
	defer rows.Close()

	out := make([]*jobs.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("listMatches scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMatchStatus(ctx context.Context, id string, from, to jobs.Status, reasons map[string]any) error {
	var encoded *string
	if reasons != nil {
		raw, err := json.Marshal(reasons)
		if err != nil {
			return fmt.Errorf("updateMatchStatus encode reasons: %w", err)
		}
		str := string(raw)
		encoded = &str
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE job_matches
		SET status = $1, reasons = COALESCE($2::jsonb, reasons), updated_at = NOW()
		WHERE id = $3 AND status = $4`,
		string(to), encoded, id, string(from),
	)
	if err != nil {
		return fmt.Errorf("updateMatchStatus: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM job_matches WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("updateMatchStatus check: %w", err)
	}
	if !exists {
		return jobs.ErrNotFound
	}
	return jobs.ErrStatusConflict
}

func scanMatch(row pgx.Row) (*jobs.Match, error) {
	var (
		m        jobs.Match
		p        jobs.Posting
		status   string
		reasons  []byte
		postedAt *time.Time
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.PostingID, &m.FitScore, &status, &reasons, &m.CreatedAt, &m.UpdatedAt,
		&p.ID, &p.URL, &p.Title, &p.Company, &p.Location, &p.Description, &p.Source, &postedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Status = jobs.Status(status)
	if len(reasons) > 0 {
		if err := json.Unmarshal(reasons, &m.Reasons); err != nil {
			return nil, fmt.Errorf("decode reasons: %w", err)
		}
	}
	if postedAt != nil {
		p.PostedAt = *postedAt
	}
	m.Posting = &p
	return &m, nil
}

// ─── Drafts & events ─────────────────────────────────────────────────────────

func (s *Store) CreateDraft(ctx context.Context, d *jobs.Draft) error {
	answers := d.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("createDraft encode answers: %w", err)
	}
	notesJSON, err := json.Marshal(d.Notes)
	if err != nil {
		return fmt.Errorf("createDraft encode notes: %w", err)
	}

	var (
		id                   string
		createdAt, updatedAt time.Time
	)
	err = s.pool.QueryRow(ctx, `
		INSERT INTO application_drafts (id, job_match_id, cover_letter, answers_json, tailoring_notes)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb)
		ON CONFLICT (job_match_id) DO NOTHING
		RETURNING id, created_at, updated_at`,
		uuid.NewString(), d.MatchID, d.CoverLetter, string(answersJSON), string(notesJSON),
	).Scan(&id, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return jobs.ErrDraftExists
	}
	if err != nil {
		return fmt.Errorf("createDraft: %w", err)
	}

	d.ID, d.CreatedAt, d.UpdatedAt = id, createdAt, updatedAt
	return nil
}

func (s *Store) GetDraft(ctx context.Context, matchID string) (*jobs.Draft, error) {
	var (
		d              jobs.Draft
		answers, notes []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, job_match_id, cover_letter, answers_json, tailoring_notes, created_at, updated_at
		FROM application_drafts WHERE job_match_id = $1`, matchID,
	).Scan(&d.ID, &d.MatchID, &d.CoverLetter, &answers, &notes, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getDraft: %w", err)
	}

	d.Answers = map[string]string{}
	if err := json.Unmarshal(answers, &d.Answers); err != nil {
		return nil, fmt.Errorf("getDraft decode answers: %w", err)
	}
	if err := json.Unmarshal(notes, &d.Notes); err != nil {
		return nil, fmt.Errorf("getDraft decode notes: %w", err)
	}
	return &d, nil
}

func (s *Store) UpdateDraft(ctx context.Context, matchID string, coverLetter *string, answers map[string]string) error {
	var encoded *string
	if answers != nil {
		raw, err := json.Marshal(answers)
		if err != nil {
			return fmt.Errorf("updateDraft encode answers: %w", err)
		}
		str := string(raw)
		encoded = &str
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE application_drafts
		SET cover_letter = COALESCE($1, cover_letter),
		    answers_json = COALESCE($2::jsonb, answers_json),
		    updated_at = NOW()
		WHERE job_match_id = $3`,
		coverLetter, encoded, matchID,
	)
	if err != nil {
		return fmt.Errorf("updateDraft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return jobs.ErrNotFound
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, e *jobs.SubmissionEvent) error {
	payload, err := json.Marshal(orEmpty(e.Payload))
	if err != nil {
		return fmt.Errorf("appendEvent encode payload: %w", err)
	}

	var (
		id        string
		createdAt time.Time
	)
	err = s.pool.QueryRow(ctx, `
		INSERT INTO submission_events (id, job_match_id, submitted_to, payload)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING id, created_at`,
		uuid.NewString(), e.MatchID, e.SubmittedTo, string(payload),
	).Scan(&id, &createdAt)
	if err != nil {
		return fmt.Errorf("appendEvent: %w", err)
	}

	e.ID, e.CreatedAt = id, createdAt
	return nil
}

func (s *Store) ListEvents(ctx context.Context, matchID string) ([]*jobs.SubmissionEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, job_match_id, submitted_to, payload, created_at
		FROM submission_events WHERE job_match_id = $1 ORDER BY created_at, seq`, matchID)
	if err != nil {
		return nil, fmt.Errorf("listEvents query: %w", err)
	}
	defer rows.Close()

	out := make([]*jobs.SubmissionEvent, 0)
	for rows.Next() {
		var (
			e       jobs.SubmissionEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.MatchID, &e.SubmittedTo, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("listEvents scan: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("listEvents decode payload: %w", err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
