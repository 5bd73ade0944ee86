package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spigell/job-triage/internal/jobs"
)

func (s *Store) GetCandidate(ctx context.Context, userID string) (*jobs.Candidate, error) {
	c := &jobs.Candidate{UserID: userID}

	err := s.db.QueryRowContext(ctx, `
		SELECT full_name, email, phone, graduation_date, work_authorization, gender, race, other_info
		FROM profiles WHERE user_id = ?`, userID,
	).Scan(&c.Profile.FullName, &c.Profile.Email, &c.Profile.Phone, &c.Profile.GraduationDate,
		&c.Profile.WorkAuthorization, &c.Profile.Gender, &c.Profile.Race, &c.Profile.OtherInfo)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting profile: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resume_text, created_at FROM resumes WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing resumes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r         jobs.Resume
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning resume: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		c.Resumes = append(c.Resumes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var (
		roles, locations, keywords, avoid string
		remote, sponsorship               int
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT roles, locations, keywords, avoid_keywords, remote_ok, sponsorship_needed, min_salary
		FROM preferences WHERE user_id = ?`, userID,
	).Scan(&roles, &locations, &keywords, &avoid, &remote, &sponsorship, &c.Preferences.MinSalary)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("getting preferences: %w", err)
	}

	for _, f := range []struct {
		raw  string
		dest *[]string
	}{
		{roles, &c.Preferences.Roles},
		{locations, &c.Preferences.Locations},
		{keywords, &c.Preferences.Keywords},
		{avoid, &c.Preferences.AvoidKeywords},
	} {
		if err := unmarshalJSON(f.raw, f.dest); err != nil {
			return nil, fmt.Errorf("decoding preferences: %w", err)
		}
	}
	c.Preferences.RemoteOK = remote != 0
	c.Preferences.SponsorshipNeeded = sponsorship != 0

	return c, nil
}

func (s *Store) SaveProfile(ctx context.Context, userID string, p jobs.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, full_name, email, phone, graduation_date, work_authorization, gender, race, other_info, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = excluded.full_name,
			email = excluded.email,
			phone = excluded.phone,
			graduation_date = excluded.graduation_date,
			work_authorization = excluded.work_authorization,
			gender = excluded.gender,
			race = excluded.race,
			other_info = excluded.other_info,
			updated_at = excluded.updated_at`,
		userID, p.FullName, p.Email, p.Phone, p.GraduationDate, p.WorkAuthorization, p.Gender, p.Race, p.OtherInfo,
		formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

func (s *Store) AddResume(ctx context.Context, userID, text string) (*jobs.Resume, error) {
	r := &jobs.Resume{ID: uuid.NewString(), Text: text, CreatedAt: s.now()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resumes (id, user_id, resume_text, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, userID, r.Text, formatTime(r.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("adding resume: %w", err)
	}
	return r, nil
}

func (s *Store) SavePreferences(ctx context.Context, userID string, p jobs.Preferences) error {
	encoded := make([]string, 0, 4)
	for _, list := range [][]string{p.Roles, p.Locations, p.Keywords, p.AvoidKeywords} {
		if list == nil {
			list = []string{}
		}
		raw, err := marshalJSON(list)
		if err != nil {
			return fmt.Errorf("encoding preferences: %w", err)
		}
		encoded = append(encoded, raw)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, roles, locations, keywords, avoid_keywords, remote_ok, sponsorship_needed, min_salary, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			roles = excluded.roles,
			locations = excluded.locations,
			keywords = excluded.keywords,
			avoid_keywords = excluded.avoid_keywords,
			remote_ok = excluded.remote_ok,
			sponsorship_needed = excluded.sponsorship_needed,
			min_salary = excluded.min_salary,
			updated_at = excluded.updated_at`,
		userID, encoded[0], encoded[1], encoded[2], encoded[3],
		boolToInt(p.RemoteOK), boolToInt(p.SponsorshipNeeded), p.MinSalary, formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}
