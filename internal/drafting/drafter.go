// Package drafting generates a cover letter and question answers for a
// promoted match and decides whether the result needs a human review.
package drafting

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	_ "embed"

	"github.com/spigell/job-triage/internal/ai"
	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/llmjson"
	"github.com/spigell/job-triage/internal/utils"
	"go.uber.org/zap"
)

const (
	// Sentinel is the placeholder the model writes where it needs user input.
	Sentinel = "[NEEDS_USER_INPUT]"

	// ReviewConfidence is the bar below which a draft goes to needs_review.
	ReviewConfidence   = 0.7
	FallbackConfidence = 0.6
	SentinelConfidence = 0.5
	// DefaultConfidence applies when the model omits the confidence field.
	DefaultConfidence = 0.5

	IssueFallback     = "fallback template used"
	IssueUnstructured = "response was not structured JSON"
	IssueSentinel     = "draft contains " + Sentinel + " placeholders"

	defaultMaxLogLength = 200
)

var DefaultQuestions = []string{
	"Why are you interested in this role?",
	"Describe a challenging project you've worked on.",
	"What are your career goals?",
}

//go:embed prompt.md
var promptTemplate string

// ProfileExcerpt holds the profile fields that may appear in generated text.
type ProfileExcerpt struct {
	FullName          string `json:"full_name,omitempty"`
	GraduationDate    string `json:"graduation_date,omitempty"`
	WorkAuthorization string `json:"work_authorization,omitempty"`
	Gender            string `json:"gender,omitempty"`
	Race              string `json:"race,omitempty"`
	OtherInfo         string `json:"other_info,omitempty"`
}

type Input struct {
	ResumeText string
	Posting    *jobs.Posting
	Profile    ProfileExcerpt
	Questions  []string
}

// InputFor builds the drafter input for a candidate and a posting.
func InputFor(c *jobs.Candidate, p *jobs.Posting, questions []string) Input {
	return Input{
		ResumeText: c.ResumeText(),
		Posting:    p,
		Profile: ProfileExcerpt{
			FullName:          c.Profile.FullName,
			GraduationDate:    c.Profile.GraduationDate,
			WorkAuthorization: c.Profile.WorkAuthorization,
			Gender:            c.Profile.Gender,
			Race:              c.Profile.Race,
			OtherInfo:         c.Profile.OtherInfo,
		},
		Questions: questions,
	}
}

type Result struct {
	CoverLetter string
	Answers     map[string]string
	Confidence  float64
	Issues      []string
	Fallback    bool
	Model       string
	GeneratedAt time.Time
}

// NeedsReview reports whether the owning match must be demoted.
func (r *Result) NeedsReview() bool {
	return r.Confidence < ReviewConfidence
}

// Notes converts the result metadata into the persisted tailoring notes.
func (r *Result) Notes() jobs.TailoringNotes {
	return jobs.TailoringNotes{
		GeneratedAt: r.GeneratedAt,
		Confidence:  r.Confidence,
		Issues:      r.Issues,
		Model:       r.Model,
		Fallback:    r.Fallback,
	}
}

type Drafter struct {
	generator ai.Generator
	questions []string
	logger    *zap.Logger
	maxLogLen int
	now       func() time.Time
}

// New returns a Drafter. Empty questions fall back to DefaultQuestions.
func New(generator ai.Generator, questions []string, logger *zap.Logger, maxLogLength int) *Drafter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	questions = utils.CompactStrings(questions)
	if len(questions) == 0 {
		questions = DefaultQuestions
	}
	return &Drafter{
		generator: generator,
		questions: questions,
		logger:    logger,
		maxLogLen: maxLogLength,
		now:       time.Now,
	}
}

// Questions returns the application questions used when Input has none.
func (d *Drafter) Questions() []string {
	return d.questions
}

// Draft never fails. Any service or parsing problem yields the fallback letter.
func (d *Drafter) Draft(ctx context.Context, in Input) *Result {
	if len(in.Questions) == 0 {
		in.Questions = d.questions
	}

	res := d.generate(ctx, in)
	res.GeneratedAt = d.now().UTC()
	if d.generator != nil {
		res.Model = d.generator.Model()
	}

	if containsSentinel(res) {
		res.Issues = append(res.Issues, IssueSentinel)
		res.Confidence = math.Min(res.Confidence, SentinelConfidence)
	}

	return res
}

func (d *Drafter) generate(ctx context.Context, in Input) *Result {
	if d.generator == nil {
		return fallback(in, nil, nil)
	}

	prompt, err := buildPrompt(in)
	if err != nil {
		d.logger.Warn("build drafting prompt", zap.Error(err))
		return fallback(in, nil, nil)
	}

	raw, err := d.generator.GenerateContent(ctx, prompt)
	if err != nil {
		d.logger.Warn("drafting call failed, using fallback template",
			zap.String("url", postingURL(in.Posting)),
			zap.Error(err),
		)
		return fallback(in, nil, nil)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback(in, nil, nil)
	}

	d.logger.Debug("drafting response",
		zap.String("url", postingURL(in.Posting)),
		zap.String("response_preview", utils.TruncateForLog(raw, d.maxLogLen)),
	)

	obj, ok := llmjson.Extract(raw)
	if !ok {
		return &Result{
			CoverLetter: raw,
			Answers:     map[string]string{},
			Confidence:  DefaultConfidence,
			Issues:      []string{IssueUnstructured},
		}
	}

	fields := llmjson.DecodeDraft(obj, DefaultConfidence)
	if strings.TrimSpace(fields.CoverLetter) == "" {
		return fallback(in, fields.Answers, fields.Issues)
	}

	return &Result{
		CoverLetter: strings.TrimSpace(fields.CoverLetter),
		Answers:     fields.Answers,
		Confidence:  fields.Confidence,
		Issues:      fields.Issues,
	}
}

func fallback(in Input, answers map[string]string, issues []string) *Result {
	if answers == nil {
		answers = map[string]string{}
	}
	return &Result{
		CoverLetter: FallbackCoverLetter(in.Posting, in.Profile.FullName),
		Answers:     answers,
		Confidence:  FallbackConfidence,
		Issues:      append(append([]string{}, issues...), IssueFallback),
		Fallback:    true,
	}
}

func containsSentinel(r *Result) bool {
	if strings.Contains(r.CoverLetter, Sentinel) {
		return true
	}
	for _, answer := range r.Answers {
		if strings.Contains(answer, Sentinel) {
			return true
		}
	}
	return false
}

func buildPrompt(in Input) (string, error) {
	if in.Posting == nil {
		return "", errors.New("posting is required")
	}

	posting, err := json.MarshalIndent(map[string]any{
		"title":       in.Posting.Title,
		"company":     in.Posting.Company,
		"location":    in.Posting.Location,
		"description": in.Posting.Description,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	profile, err := json.MarshalIndent(in.Profile, "", "  ")
	if err != nil {
		return "", err
	}

	questions, err := json.MarshalIndent(in.Questions, "", "  ")
	if err != nil {
		return "", err
	}

	resume := strings.TrimSpace(in.ResumeText)
	if resume == "" {
		resume = "(empty)"
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{RESUME_TEXT}}", resume)
	prompt = strings.ReplaceAll(prompt, "{{PROFILE_JSON}}", string(profile))
	prompt = strings.ReplaceAll(prompt, "{{POSTING_JSON}}", string(posting))
	prompt = strings.ReplaceAll(prompt, "{{QUESTIONS_JSON}}", string(questions))
	prompt = strings.ReplaceAll(prompt, "{{SENTINEL}}", Sentinel)
	return prompt, nil
}

func postingURL(p *jobs.Posting) string {
	if p == nil {
		return ""
	}
	return p.URL
}
