// Package memory is an in-process store used by tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/store"
)

type Store struct {
	mu sync.RWMutex

	postings      map[string]*jobs.Posting
	postingsByURL map[string]string
	postingSeq    map[string]int
	seq           int

	candidates map[string]*jobs.Candidate
	matches    map[string]*jobs.Match
	matchKeys  map[matchKey]string
	matchSeq   map[string]int
	drafts     map[string]*jobs.Draft
	events     map[string][]*jobs.SubmissionEvent

	now func() time.Time
}

type matchKey struct {
	userID    string
	postingID string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		postings:      make(map[string]*jobs.Posting),
		postingsByURL: make(map[string]string),
		postingSeq:    make(map[string]int),
		candidates:    make(map[string]*jobs.Candidate),
		matches:       make(map[string]*jobs.Match),
		matchKeys:     make(map[matchKey]string),
		matchSeq:      make(map[string]int),
		drafts:        make(map[string]*jobs.Draft),
		events:        make(map[string][]*jobs.SubmissionEvent),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) InsertPosting(_ context.Context, p *jobs.Posting) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	url := jobs.CanonicalURL(p.URL)
	if id, ok := s.postingsByURL[url]; ok {
		p.ID = id
		return false, nil
	}

	cp := *p
	cp.URL = url
	cp.ID = uuid.NewString()
	cp.CreatedAt = s.now()
	s.seq++
	s.postings[cp.ID] = &cp
	s.postingsByURL[url] = cp.ID
	s.postingSeq[cp.ID] = s.seq

	p.ID, p.URL, p.CreatedAt = cp.ID, cp.URL, cp.CreatedAt
	return true, nil
}

func (s *Store) GetPosting(_ context.Context, id string) (*jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.postings[id]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListUnmatchedPostings(_ context.Context, userID string) ([]*jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*jobs.Posting, 0, len(s.postings))
	for id, p := range s.postings {
		if _, matched := s.matchKeys[matchKey{userID: userID, postingID: id}]; matched {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.postingSeq[out[i].ID] > s.postingSeq[out[j].ID]
	})
	return out, nil
}

func (s *Store) GetCandidate(_ context.Context, userID string) (*jobs.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[userID]
	if !ok {
		return &jobs.Candidate{UserID: userID}, nil
	}
	cp := *c
	cp.Resumes = append([]jobs.Resume(nil), c.Resumes...)
	return &cp, nil
}

func (s *Store) candidate(userID string) *jobs.Candidate {
	c, ok := s.candidates[userID]
	if !ok {
		c = &jobs.Candidate{UserID: userID}
		s.candidates[userID] = c
	}
	return c
}

func (s *Store) SaveProfile(_ context.Context, userID string, p jobs.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate(userID).Profile = p
	return nil
}

func (s *Store) AddResume(_ context.Context, userID, text string) (*jobs.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := jobs.Resume{ID: uuid.NewString(), Text: text, CreatedAt: s.now()}
	c := s.candidate(userID)
	c.Resumes = append(c.Resumes, r)
	return &r, nil
}

func (s *Store) SavePreferences(_ context.Context, userID string, p jobs.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate(userID).Preferences = p
	return nil
}

func (s *Store) CreateMatch(_ context.Context, m *jobs.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := matchKey{userID: m.UserID, postingID: m.PostingID}
	if _, ok := s.matchKeys[key]; ok {
		return jobs.ErrAlreadyMatched
	}
	if _, ok := s.postings[m.PostingID]; !ok {
		return jobs.ErrNotFound
	}

	now := s.now()
	cp := *m
	cp.ID = uuid.NewString()
	cp.CreatedAt, cp.UpdatedAt = now, now
	cp.Posting = nil
	s.seq++
	s.matches[cp.ID] = &cp
	s.matchKeys[key] = cp.ID
	s.matchSeq[cp.ID] = s.seq

	m.ID, m.CreatedAt, m.UpdatedAt = cp.ID, now, now
	return nil
}

func (s *Store) withPosting(m *jobs.Match) *jobs.Match {
	cp := *m
	if p, ok := s.postings[m.PostingID]; ok {
		pc := *p
		cp.Posting = &pc
	}
	return &cp
}

func (s *Store) GetMatch(_ context.Context, userID, id string) (*jobs.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok || m.UserID != userID {
		return nil, jobs.ErrNotFound
	}
	return s.withPosting(m), nil
}

func (s *Store) ListMatches(_ context.Context, userID string, status jobs.Status) ([]*jobs.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*jobs.Match, 0)
	for _, m := range s.matches {
		if m.UserID != userID || (status != "" && m.Status != status) {
			continue
		}
		out = append(out, s.withPosting(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FitScore != out[j].FitScore {
			return out[i].FitScore > out[j].FitScore
		}
		return s.matchSeq[out[i].ID] < s.matchSeq[out[j].ID]
	})
	return out, nil
}

func (s *Store) UpdateMatchStatus(_ context.Context, id string, from, to jobs.Status, reasons map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return jobs.ErrNotFound
	}
	if m.Status != from {
		return jobs.ErrStatusConflict
	}
	m.Status = to
	if reasons != nil {
		m.Reasons = reasons
	}
	m.UpdatedAt = s.now()
	return nil
}

func (s *Store) CreateDraft(_ context.Context, d *jobs.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[d.MatchID]; !ok {
		return jobs.ErrNotFound
	}
	if _, ok := s.drafts[d.MatchID]; ok {
		return jobs.ErrDraftExists
	}

	now := s.now()
	cp := *d
	cp.ID = uuid.NewString()
	cp.CreatedAt, cp.UpdatedAt = now, now
	cp.Answers = copyAnswers(d.Answers)
	s.drafts[d.MatchID] = &cp

	d.ID, d.CreatedAt, d.UpdatedAt = cp.ID, now, now
	return nil
}

func (s *Store) GetDraft(_ context.Context, matchID string) (*jobs.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[matchID]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	cp := *d
	cp.Answers = copyAnswers(d.Answers)
	return &cp, nil
}

func (s *Store) UpdateDraft(_ context.Context, matchID string, coverLetter *string, answers map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[matchID]
	if !ok {
		return jobs.ErrNotFound
	}
	if coverLetter != nil {
		d.CoverLetter = *coverLetter
	}
	if answers != nil {
		d.Answers = copyAnswers(answers)
	}
	d.UpdatedAt = s.now()
	return nil
}

func (s *Store) AppendEvent(_ context.Context, e *jobs.SubmissionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[e.MatchID]; !ok {
		return jobs.ErrNotFound
	}
	cp := *e
	cp.ID = uuid.NewString()
	cp.CreatedAt = s.now()
	s.events[e.MatchID] = append(s.events[e.MatchID], &cp)

	e.ID, e.CreatedAt = cp.ID, cp.CreatedAt
	return nil
}

func (s *Store) ListEvents(_ context.Context, matchID string) ([]*jobs.SubmissionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*jobs.SubmissionEvent, 0, len(s.events[matchID]))
	for _, e := range s.events[matchID] {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
