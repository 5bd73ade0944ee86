package jobs

import (
	"math"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"drafted", "skipped", "needs_review", "applied"} {
		got, err := ParseStatus(s)
		if err != nil {
			t.Fatalf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Fatalf("ParseStatus(%q) = %q", s, got)
		}
	}

	for _, s := range []string{"", "DRAFTED", "unknown"} {
		if _, err := ParseStatus(s); err == nil {
			t.Fatalf("ParseStatus(%q) expected error", s)
		}
	}
}

func TestInitialStatus(t *testing.T) {
	cases := []struct {
		score, threshold int
		want             Status
	}{
		{70, 70, StatusDrafted},
		{100, 70, StatusDrafted},
		{69, 70, StatusSkipped},
		{0, 70, StatusSkipped},
	}
	for _, c := range cases {
		if got := InitialStatus(c.score, c.threshold); got != c.want {
			t.Fatalf("InitialStatus(%d, %d) = %s, want %s", c.score, c.threshold, got, c.want)
		}
	}
}

func TestIsTransitionAllowed(t *testing.T) {
	cases := []struct {
		actor    Actor
		from, to Status
		want     bool
	}{
		{ActorPipeline, StatusSkipped, StatusDrafted, true},
		{ActorPipeline, StatusDrafted, StatusNeedsReview, true},
		{ActorPipeline, StatusNeedsReview, StatusDrafted, false},
		{ActorPipeline, StatusDrafted, StatusApplied, false},
		{ActorUser, StatusDrafted, StatusApplied, true},
		{ActorUser, StatusNeedsReview, StatusApplied, true},
		{ActorUser, StatusDrafted, StatusSkipped, true},
		{ActorUser, StatusNeedsReview, StatusSkipped, true},
		{ActorUser, StatusSkipped, StatusDrafted, false},
		{ActorUser, StatusApplied, StatusSkipped, false},
		{ActorUser, StatusSkipped, StatusApplied, false},
	}
	for _, c := range cases {
		if got := IsTransitionAllowed(c.actor, c.from, c.to); got != c.want {
			t.Fatalf("IsTransitionAllowed(%s, %s → %s) = %v, want %v", c.actor, c.from, c.to, got, c.want)
		}
	}
}

func TestClampScore(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{-5, 0},
		{0, 0},
		{49.5, 50},
		{72.4, 72},
		{100, 100},
		{140, 100},
		{math.NaN(), 0},
		{math.Inf(1), 100},
	}
	for _, c := range cases {
		if got := ClampScore(c.in); got != c.want {
			t.Fatalf("ClampScore(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestCandidateResumeTextPicksLatest(t *testing.T) {
	now := time.Now()
	c := &Candidate{Resumes: []Resume{
		{Text: "old", CreatedAt: now.Add(-time.Hour)},
		{Text: "  ", CreatedAt: now.Add(time.Hour)},
		{Text: "new", CreatedAt: now},
	}}
	if got := c.ResumeText(); got != "new" {
		t.Fatalf("expected latest non-empty resume, got %q", got)
	}

	var empty *Candidate
	if empty.ResumeText() != "" {
		t.Fatalf("expected empty text for nil candidate")
	}
}

func TestPreferencesHasRoles(t *testing.T) {
	if (Preferences{Roles: []string{" ", ""}}).HasRoles() {
		t.Fatalf("blank roles must not count")
	}
	if !(Preferences{Roles: []string{"Backend Engineer"}}).HasRoles() {
		t.Fatalf("expected declared role to count")
	}
}
