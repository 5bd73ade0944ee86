package llmjson

import (
	"reflect"
	"testing"
)

func TestDecodeFit(t *testing.T) {
	tests := []struct {
		name        string
		obj         map[string]any
		wantScore   float64
		wantFound   bool
		wantReasons map[string]any
	}{
		{
			name:        "score and object reasons",
			obj:         map[string]any{"score": float64(80), "reasons": map[string]any{"skills": "go"}},
			wantScore:   80,
			wantFound:   true,
			wantReasons: map[string]any{"skills": "go"},
		},
		{
			name:        "fit_score alias with list reasons",
			obj:         map[string]any{"fit_score": "64", "reasoning": []any{"python", "remote"}},
			wantScore:   64,
			wantFound:   true,
			wantReasons: map[string]any{"highlights": []string{"python", "remote"}},
		},
		{
			name:        "score wins over fit_score",
			obj:         map[string]any{"score": float64(10), "fit_score": float64(90), "reasons": "short"},
			wantScore:   10,
			wantFound:   true,
			wantReasons: map[string]any{"summary": "short"},
		},
		{
			name:        "missing score uses default and keeps rest as reasons",
			obj:         map[string]any{"strengths": "sql"},
			wantScore:   75,
			wantFound:   false,
			wantReasons: map[string]any{"strengths": "sql"},
		},
		{
			name:        "non numeric score uses default",
			obj:         map[string]any{"score": "excellent"},
			wantScore:   75,
			wantFound:   false,
			wantReasons: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeFit(tt.obj, 75)
			if got.Score != tt.wantScore || got.ScoreFound != tt.wantFound {
				t.Fatalf("score = %v (found %v), want %v (found %v)", got.Score, got.ScoreFound, tt.wantScore, tt.wantFound)
			}
			if !reflect.DeepEqual(got.Reasons, tt.wantReasons) {
				t.Fatalf("reasons = %#v, want %#v", got.Reasons, tt.wantReasons)
			}
		})
	}
}

func TestDecodeDraft(t *testing.T) {
	t.Run("camel case cover letter and percent confidence", func(t *testing.T) {
		got := DecodeDraft(map[string]any{
			"coverLetter": "Dear team",
			"answers":     map[string]any{"Q": "A"},
			"confidence":  float64(85),
			"issues":      []any{"check dates"},
		}, 0.5)
		if got.CoverLetter != "Dear team" {
			t.Fatalf("unexpected cover letter %q", got.CoverLetter)
		}
		if got.Confidence != 0.85 || !got.ConfidenceFound {
			t.Fatalf("expected rescaled confidence 0.85, got %v (found %v)", got.Confidence, got.ConfidenceFound)
		}
		if !reflect.DeepEqual(got.Answers, map[string]string{"Q": "A"}) {
			t.Fatalf("unexpected answers %#v", got.Answers)
		}
		if !reflect.DeepEqual(got.Issues, []string{"check dates"}) {
			t.Fatalf("unexpected issues %#v", got.Issues)
		}
	})

	t.Run("snake case with malformed fields", func(t *testing.T) {
		got := DecodeDraft(map[string]any{
			"cover_letter": "Hello",
			"answers_json": []any{"not", "a", "map"},
			"confidence":   "0.9",
			"issues":       "single issue",
		}, 0.5)
		if got.CoverLetter != "Hello" || got.Confidence != 0.9 {
			t.Fatalf("unexpected decode %#v", got)
		}
		if len(got.Answers) != 0 || len(got.Issues) != 0 {
			t.Fatalf("expected empty answers and issues, got %#v / %#v", got.Answers, got.Issues)
		}
	})

	t.Run("missing confidence uses default", func(t *testing.T) {
		got := DecodeDraft(map[string]any{"cover_letter": "Hi"}, 0.5)
		if got.Confidence != 0.5 || got.ConfidenceFound {
			t.Fatalf("expected default confidence, got %v (found %v)", got.Confidence, got.ConfidenceFound)
		}
	})

	t.Run("confidence is clamped", func(t *testing.T) {
		if got := DecodeDraft(map[string]any{"confidence": float64(250)}, 0.5); got.Confidence != 1 {
			t.Fatalf("expected clamp to 1, got %v", got.Confidence)
		}
		if got := DecodeDraft(map[string]any{"confidence": float64(-0.4)}, 0.5); got.Confidence != 0 {
			t.Fatalf("expected clamp to 0, got %v", got.Confidence)
		}
	})
}
