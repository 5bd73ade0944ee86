package llmjson

import "math"

// Field aliases accepted in model responses. The first key present wins.
//
//	field         accepted keys
//	score         score, fit_score
//	reasons       reasons, reasoning
//	cover letter  cover_letter, coverLetter
//	answers       answers, answers_json
//	confidence    confidence
//	issues        issues
var (
	ScoreKeys       = []string{"score", "fit_score"}
	ReasonsKeys     = []string{"reasons", "reasoning"}
	CoverLetterKeys = []string{"cover_letter", "coverLetter"}
	AnswersKeys     = []string{"answers", "answers_json"}
	ConfidenceKeys  = []string{"confidence"}
	IssuesKeys      = []string{"issues"}
)

// Lookup returns the value of the first alias present in obj.
func Lookup(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// FitFields is the normalized shape of a scoring response.
type FitFields struct {
	Score      float64
	ScoreFound bool
	Reasons    map[string]any
}

// DecodeFit reads a scoring object. defScore is used when the score is
// missing or not numeric.
func DecodeFit(obj map[string]any, defScore float64) FitFields {
	out := FitFields{Score: defScore}
	if v, ok := Lookup(obj, ScoreKeys); ok {
		if f := Number(v, math.NaN()); !math.IsNaN(f) {
			out.Score = f
			out.ScoreFound = true
		}
	}

	raw, _ := Lookup(obj, ReasonsKeys)
	switch val := raw.(type) {
	case map[string]any:
		out.Reasons = val
	case []any:
		out.Reasons = map[string]any{"highlights": Strings(val)}
	case string:
		out.Reasons = map[string]any{"summary": val}
	default:
		rest := make(map[string]any, len(obj))
		for k, v := range obj {
			if !contains(ScoreKeys, k) {
				rest[k] = v
			}
		}
		out.Reasons = rest
	}
	return out
}

// DraftFields is the normalized shape of a drafting response.
type DraftFields struct {
	CoverLetter     string
	Answers         map[string]string
	Confidence      float64
	ConfidenceFound bool
	Issues          []string
}

// DecodeDraft reads a drafting object. Confidence reported on a 0-100 scale
// is rescaled to [0, 1]. defConfidence is used when it is missing.
func DecodeDraft(obj map[string]any, defConfidence float64) DraftFields {
	out := DraftFields{Confidence: defConfidence}

	if v, ok := Lookup(obj, CoverLetterKeys); ok {
		if s, ok := v.(string); ok {
			out.CoverLetter = s
		}
	}

	answers, _ := Lookup(obj, AnswersKeys)
	out.Answers = Answers(answers)

	if v, ok := Lookup(obj, ConfidenceKeys); ok {
		if c := Number(v, math.NaN()); !math.IsNaN(c) {
			if c > 1 {
				c /= 100
			}
			out.Confidence = math.Max(0, math.Min(1, c))
			out.ConfidenceFound = true
		}
	}

	issues, _ := Lookup(obj, IssuesKeys)
	out.Issues = Strings(issues)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
