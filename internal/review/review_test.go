package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-triage/internal/events"
	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/store"
	"github.com/spigell/job-triage/internal/store/memory"
)

const owner = "user-1"

func seedMatch(t *testing.T, st store.Store, url string, status jobs.Status, score int, withDraft bool) *jobs.Match {
	t.Helper()
	ctx := context.Background()

	p := &jobs.Posting{URL: url, Title: "Engineer", Company: "Acme"}
	if _, err := st.InsertPosting(ctx, p); err != nil {
		t.Fatalf("insert posting: %v", err)
	}
	m := &jobs.Match{UserID: owner, PostingID: p.ID, FitScore: score, Status: status, Reasons: map[string]any{"summary": "ok"}}
	if err := st.CreateMatch(ctx, m); err != nil {
		t.Fatalf("create match: %v", err)
	}
	if withDraft {
		d := &jobs.Draft{MatchID: m.ID, CoverLetter: "original", Answers: map[string]string{"q": "a"}}
		if err := st.CreateDraft(ctx, d); err != nil {
			t.Fatalf("create draft: %v", err)
		}
	}
	return m
}

func TestApprove(t *testing.T) {
	st := memory.New()
	pub := &events.Memory{}
	svc := New(st, pub, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC) }

	m := seedMatch(t, st, "https://a", jobs.StatusNeedsReview, 65, true)
	letter := "edited letter"

	got, err := svc.Approve(context.Background(), owner, m.ID, Edits{CoverLetter: &letter})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != jobs.StatusApplied {
		t.Fatalf("expected applied, got %s", got.Status)
	}

	item, err := svc.Get(context.Background(), owner, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.Match.Status != jobs.StatusApplied {
		t.Fatalf("expected stored status applied, got %s", item.Match.Status)
	}
	if item.Draft.CoverLetter != letter || item.Draft.Answers["q"] != "a" {
		t.Fatalf("expected only the cover letter edited, got %+v", item.Draft)
	}

	audit, err := st.ListEvents(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(audit) != 1 || audit[0].SubmittedTo != SubmittedToManual {
		t.Fatalf("unexpected audit trail: %+v", audit)
	}
	if audit[0].Payload["user_id"] != owner || audit[0].Payload["approved_at"] != "2026-02-03T12:00:00Z" {
		t.Fatalf("unexpected audit payload: %v", audit[0].Payload)
	}

	if types := pub.Types(); len(types) != 1 || types[0] != events.MatchApplied {
		t.Fatalf("expected applied event, got %v", types)
	}
}

func TestApproveWithoutDraftStillSucceeds(t *testing.T) {
	st := memory.New()
	core, observed := observer.New(zapcore.WarnLevel)
	svc := New(st, nil, zap.New(core))

	m := seedMatch(t, st, "https://a", jobs.StatusDrafted, 80, false)
	letter := "edited"
	if _, err := svc.Approve(context.Background(), owner, m.ID, Edits{CoverLetter: &letter}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if observed.FilterMessage("updating draft failed").Len() != 1 {
		t.Fatalf("expected warning about the missing draft")
	}
}

func TestSkip(t *testing.T) {
	st := memory.New()
	pub := &events.Memory{}
	svc := New(st, pub, nil)

	withReason := seedMatch(t, st, "https://a", jobs.StatusDrafted, 80, true)
	withoutReason := seedMatch(t, st, "https://b", jobs.StatusNeedsReview, 60, true)

	if _, err := svc.Skip(context.Background(), owner, withReason.ID, "  relocation required "); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if _, err := svc.Skip(context.Background(), owner, withoutReason.ID, ""); err != nil {
		t.Fatalf("skip: %v", err)
	}

	first, _ := st.GetMatch(context.Background(), owner, withReason.ID)
	if first.Status != jobs.StatusSkipped || first.Reasons["skip_reason"] != "relocation required" || len(first.Reasons) != 1 {
		t.Fatalf("unexpected skipped match: %+v", first)
	}
	second, _ := st.GetMatch(context.Background(), owner, withoutReason.ID)
	if second.Status != jobs.StatusSkipped || second.Reasons["summary"] != "ok" {
		t.Fatalf("expected reasons to be kept without a skip reason, got %+v", second)
	}

	if got := pub.Events(); len(got) != 2 || got[0].Payload["reason"] != "relocation required" {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestDecisionErrors(t *testing.T) {
	st := memory.New()
	svc := New(st, nil, nil)

	skipped := seedMatch(t, st, "https://a", jobs.StatusSkipped, 30, false)
	applied := seedMatch(t, st, "https://b", jobs.StatusApplied, 90, true)
	drafted := seedMatch(t, st, "https://c", jobs.StatusDrafted, 90, true)

	tests := []struct {
		name    string
		do      func() error
		wantErr error
	}{
		{name: "approve skipped", do: func() error { _, err := svc.Approve(context.Background(), owner, skipped.ID, Edits{}); return err }, wantErr: jobs.ErrForbiddenTransition},
		{name: "skip applied", do: func() error { _, err := svc.Skip(context.Background(), owner, applied.ID, ""); return err }, wantErr: jobs.ErrForbiddenTransition},
		{name: "approve someone else's match", do: func() error { _, err := svc.Approve(context.Background(), "intruder", drafted.ID, Edits{}); return err }, wantErr: jobs.ErrNotFound},
		{name: "skip unknown match", do: func() error { _, err := svc.Skip(context.Background(), owner, "missing", ""); return err }, wantErr: jobs.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.do(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	m, _ := st.GetMatch(context.Background(), owner, drafted.ID)
	if m.Status != jobs.StatusDrafted {
		t.Fatalf("expected foreign approval to leave the match untouched, got %s", m.Status)
	}
}

func TestPendingAndList(t *testing.T) {
	st := memory.New()
	svc := New(st, nil, nil)

	seedMatch(t, st, "https://a", jobs.StatusSkipped, 95, false)
	seedMatch(t, st, "https://b", jobs.StatusNeedsReview, 60, true)
	seedMatch(t, st, "https://c", jobs.StatusDrafted, 85, true)
	seedMatch(t, st, "https://d", jobs.StatusApplied, 99, true)

	pending, err := svc.Pending(context.Background(), owner)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].Match.FitScore != 85 || pending[1].Match.FitScore != 60 {
		t.Fatalf("unexpected pending items: %+v", pending)
	}
	for _, item := range pending {
		if item.Draft == nil {
			t.Fatalf("expected draft for pending match %s", item.Match.ID)
		}
	}

	all, err := svc.List(context.Background(), owner, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].Draft == nil || all[1].Draft != nil {
		t.Fatalf("expected 4 items with drafts where present, got %+v", all)
	}
}
