// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/store"
)

// Factory returns an empty store. Cleanup is the caller's concern.
type Factory func(t *testing.T) store.Store

// Run executes the shared suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("PostingDedup", func(t *testing.T) { testPostingDedup(t, newStore(t)) })
	t.Run("UnmatchedPostings", func(t *testing.T) { testUnmatchedPostings(t, newStore(t)) })
	t.Run("MatchUniqueness", func(t *testing.T) { testMatchUniqueness(t, newStore(t)) })
	t.Run("MatchStatusCompareAndSet", func(t *testing.T) { testMatchStatus(t, newStore(t)) })
	t.Run("ListMatches", func(t *testing.T) { testListMatches(t, newStore(t)) })
	t.Run("Drafts", func(t *testing.T) { testDrafts(t, newStore(t)) })
	t.Run("Events", func(t *testing.T) { testEvents(t, newStore(t)) })
	t.Run("Candidate", func(t *testing.T) { testCandidate(t, newStore(t)) })
}

func posting(url, title string) *jobs.Posting {
	return &jobs.Posting{URL: url, Title: title, Company: "Acme", Location: "Remote", Source: "test"}
}

func mustInsert(t *testing.T, s store.Store, p *jobs.Posting) *jobs.Posting {
	t.Helper()
	inserted, err := s.InsertPosting(context.Background(), p)
	require.NoError(t, err)
	require.True(t, inserted)
	require.NotEmpty(t, p.ID)
	return p
}

func mustMatch(t *testing.T, s store.Store, userID string, p *jobs.Posting, score int, status jobs.Status) *jobs.Match {
	t.Helper()
	m := &jobs.Match{UserID: userID, PostingID: p.ID, FitScore: score, Status: status, Reasons: map[string]any{"summary": "ok"}}
	require.NoError(t, s.CreateMatch(context.Background(), m))
	require.NotEmpty(t, m.ID)
	return m
}

func testPostingDedup(t *testing.T, s store.Store) {
	ctx := context.Background()

	first := mustInsert(t, s, posting("https://example.com/a", "A"))

	dup := posting(" https://example.com/a ", "A changed")
	inserted, err := s.InsertPosting(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.GetPosting(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title, "duplicates must never update the stored posting")

	_, err = s.GetPosting(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func testUnmatchedPostings(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustInsert(t, s, posting("https://example.com/a", "A"))
	b := mustInsert(t, s, posting("https://example.com/b", "B"))
	c := mustInsert(t, s, posting("https://example.com/c", "C"))

	mustMatch(t, s, "user-1", b, 50, jobs.StatusSkipped)

	got, err := s.ListUnmatchedPostings(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, c.ID, got[0].ID, "newest posting first")
	assert.Equal(t, a.ID, got[1].ID)

	other, err := s.ListUnmatchedPostings(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, other, 3)
}

func testMatchUniqueness(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := mustInsert(t, s, posting("https://example.com/a", "A"))
	mustMatch(t, s, "user-1", p, 80, jobs.StatusDrafted)

	err := s.CreateMatch(ctx, &jobs.Match{UserID: "user-1", PostingID: p.ID, FitScore: 10, Status: jobs.StatusSkipped})
	assert.ErrorIs(t, err, jobs.ErrAlreadyMatched)

	mustMatch(t, s, "user-2", p, 10, jobs.StatusSkipped)

	matches, err := s.ListMatches(ctx, "user-1", "")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 80, matches[0].FitScore)
}

func testMatchStatus(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := mustInsert(t, s, posting("https://example.com/a", "A"))
	m := mustMatch(t, s, "user-1", p, 40, jobs.StatusSkipped)

	require.NoError(t, s.UpdateMatchStatus(ctx, m.ID, jobs.StatusSkipped, jobs.StatusDrafted, nil))

	err := s.UpdateMatchStatus(ctx, m.ID, jobs.StatusSkipped, jobs.StatusDrafted, nil)
	assert.ErrorIs(t, err, jobs.ErrStatusConflict)

	reasons := map[string]any{"skip_reason": "too far"}
	require.NoError(t, s.UpdateMatchStatus(ctx, m.ID, jobs.StatusDrafted, jobs.StatusSkipped, reasons))

	got, err := s.GetMatch(ctx, "user-1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusSkipped, got.Status)
	assert.Equal(t, "too far", got.Reasons["skip_reason"])
	require.NotNil(t, got.Posting)
	assert.Equal(t, "A", got.Posting.Title)

	_, err = s.GetMatch(ctx, "user-2", m.ID)
	assert.ErrorIs(t, err, jobs.ErrNotFound)

	err = s.UpdateMatchStatus(ctx, "00000000-0000-0000-0000-000000000000", jobs.StatusDrafted, jobs.StatusApplied, nil)
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func testListMatches(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustInsert(t, s, posting("https://example.com/a", "A"))
	b := mustInsert(t, s, posting("https://example.com/b", "B"))
	c := mustInsert(t, s, posting("https://example.com/c", "C"))

	mustMatch(t, s, "user-1", a, 30, jobs.StatusSkipped)
	mustMatch(t, s, "user-1", b, 90, jobs.StatusDrafted)
	mustMatch(t, s, "user-1", c, 70, jobs.StatusDrafted)

	all, err := s.ListMatches(ctx, "user-1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{90, 70, 30}, []int{all[0].FitScore, all[1].FitScore, all[2].FitScore})
	require.NotNil(t, all[0].Posting)
	assert.Equal(t, "B", all[0].Posting.Title)

	drafted, err := s.ListMatches(ctx, "user-1", jobs.StatusDrafted)
	require.NoError(t, err)
	assert.Len(t, drafted, 2)

	none, err := s.ListMatches(ctx, "user-2", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testDrafts(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := mustInsert(t, s, posting("https://example.com/a", "A"))
	m := mustMatch(t, s, "user-1", p, 90, jobs.StatusDrafted)

	d := &jobs.Draft{
		MatchID:     m.ID,
		CoverLetter: "Dear Acme",
		Answers:     map[string]string{"Why?": "Because"},
		Notes:       jobs.TailoringNotes{Confidence: 0.8, Issues: []string{"check dates"}, Model: "stub"},
	}
	require.NoError(t, s.CreateDraft(ctx, d))
	require.NotEmpty(t, d.ID)

	err := s.CreateDraft(ctx, &jobs.Draft{MatchID: m.ID, CoverLetter: "again", Answers: map[string]string{}})
	assert.ErrorIs(t, err, jobs.ErrDraftExists)

	got, err := s.GetDraft(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dear Acme", got.CoverLetter)
	assert.Equal(t, map[string]string{"Why?": "Because"}, got.Answers)
	assert.InDelta(t, 0.8, got.Notes.Confidence, 1e-9)
	assert.Equal(t, []string{"check dates"}, got.Notes.Issues)

	letter := "Edited"
	require.NoError(t, s.UpdateDraft(ctx, m.ID, &letter, nil))
	got, err = s.GetDraft(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.CoverLetter)
	assert.Equal(t, "Because", got.Answers["Why?"])

	require.NoError(t, s.UpdateDraft(ctx, m.ID, nil, map[string]string{"Why?": "Changed"}))
	got, err = s.GetDraft(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.CoverLetter)
	assert.Equal(t, "Changed", got.Answers["Why?"])

	_, err = s.GetDraft(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func testEvents(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := mustInsert(t, s, posting("https://example.com/a", "A"))
	m := mustMatch(t, s, "user-1", p, 90, jobs.StatusDrafted)

	e := &jobs.SubmissionEvent{MatchID: m.ID, SubmittedTo: "manual_approval", Payload: map[string]any{"user_id": "user-1"}}
	require.NoError(t, s.AppendEvent(ctx, e))
	assert.NotEmpty(t, e.ID)

	events, err := s.ListEvents(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "manual_approval", events[0].SubmittedTo)
	assert.Equal(t, "user-1", events[0].Payload["user_id"])
}

func testCandidate(t *testing.T, s store.Store) {
	ctx := context.Background()

	empty, err := s.GetCandidate(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, "", empty.ResumeText())
	assert.False(t, empty.Preferences.HasRoles())

	require.NoError(t, s.SaveProfile(ctx, "user-1", jobs.Profile{FullName: "Jane Roe", WorkAuthorization: "citizen"}))
	_, err = s.AddResume(ctx, "user-1", "first resume")
	require.NoError(t, err)
	_, err = s.AddResume(ctx, "user-1", "second resume")
	require.NoError(t, err)
	require.NoError(t, s.SavePreferences(ctx, "user-1", jobs.Preferences{Roles: []string{"SWE"}, RemoteOK: true, MinSalary: 1000}))
	require.NoError(t, s.SavePreferences(ctx, "user-1", jobs.Preferences{Roles: []string{"SWE", "SRE"}, Locations: []string{"Berlin"}, RemoteOK: true}))

	c, err := s.GetCandidate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", c.Profile.FullName)
	assert.Len(t, c.Resumes, 2)
	assert.Equal(t, []string{"SWE", "SRE"}, c.Preferences.Roles)
	assert.Equal(t, []string{"Berlin"}, c.Preferences.Locations)
	assert.True(t, c.Preferences.RemoteOK)
	assert.Equal(t, 0, c.Preferences.MinSalary)
	assert.True(t, c.Preferences.HasRoles())
}
