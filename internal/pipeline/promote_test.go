package pipeline

import (
	"testing"

	"github.com/spigell/job-triage/internal/jobs"
)

func TestSelectFallback(t *testing.T) {
	matches := []*jobs.Match{
		{ID: "a", FitScore: 40},
		{ID: "b", FitScore: 60},
		{ID: "c", FitScore: 40},
		{ID: "d", FitScore: 60},
		{ID: "e", FitScore: 10},
	}

	tests := []struct {
		name  string
		in    []*jobs.Match
		limit int
		want  []string
	}{
		{name: "ties keep processing order", in: matches, limit: 3, want: []string{"b", "d", "a"}},
		{name: "limit larger than input", in: matches[:2], limit: 3, want: []string{"b", "a"}},
		{name: "zero limit", in: matches, limit: 0, want: nil},
		{name: "empty input", in: nil, limit: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectFallback(tt.in, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %d matches", tt.want, len(got))
			}
			for i, m := range got {
				if m.ID != tt.want[i] {
					t.Fatalf("position %d: expected %s, got %s", i, tt.want[i], m.ID)
				}
			}
		})
	}

	if matches[0].ID != "a" || matches[1].ID != "b" {
		t.Fatalf("expected input order to be preserved")
	}
}
