// Package scoring rates a posting against a candidate with one model call.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	_ "embed"

	"github.com/spigell/job-triage/internal/ai"
	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/llmjson"
	"github.com/spigell/job-triage/internal/utils"
	"go.uber.org/zap"
)

// DefaultScore is used whenever the model gives no usable score.
const DefaultScore = 75

const defaultMaxLogLength = 200

//go:embed prompt.md
var promptTemplate string

var errNoObject = errors.New("no JSON object found in model response")

// ProfileExcerpt is the part of the profile the scorer is allowed to see.
// Demographic attributes are intentionally absent.
type ProfileExcerpt struct {
	GraduationDate    string `json:"graduation_date,omitempty"`
	WorkAuthorization string `json:"work_authorization,omitempty"`
}

type Input struct {
	ResumeText  string
	Posting     *jobs.Posting
	Preferences jobs.Preferences
	Profile     ProfileExcerpt
}

// InputFor builds the scorer input for a candidate and a posting.
func InputFor(c *jobs.Candidate, p *jobs.Posting) Input {
	return Input{
		ResumeText:  c.ResumeText(),
		Posting:     p,
		Preferences: c.Preferences,
		Profile: ProfileExcerpt{
			GraduationDate:    c.Profile.GraduationDate,
			WorkAuthorization: c.Profile.WorkAuthorization,
		},
	}
}

type Assessment struct {
	Score    int
	Reasons  map[string]any
	Fallback bool
	Raw      string
}

type Scorer struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

func New(generator ai.Generator, logger *zap.Logger, maxLogLength int) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Scorer{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

// Score never fails. Service errors and unparseable answers produce
// DefaultScore with an error marker in the reasons.
func (s *Scorer) Score(ctx context.Context, in Input) *Assessment {
	if s.generator == nil {
		return fallback(errors.New("no ai generator configured"), "")
	}

	prompt, err := buildPrompt(in)
	if err != nil {
		return fallback(err, "")
	}

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Warn("scoring call failed, using default score",
			zap.String("url", postingURL(in.Posting)),
			zap.Error(err),
		)
		return fallback(err, "")
	}

	s.logger.Debug("scoring response",
		zap.String("url", postingURL(in.Posting)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	obj, ok := llmjson.Extract(raw)
	if !ok {
		s.logger.Warn("scoring response has no JSON object, using default score",
			zap.String("url", postingURL(in.Posting)),
		)
		return fallback(errNoObject, raw)
	}

	fields := llmjson.DecodeFit(obj, DefaultScore)
	return &Assessment{
		Score:   jobs.ClampScore(fields.Score),
		Reasons: fields.Reasons,
		Raw:     raw,
	}
}

func fallback(err error, raw string) *Assessment {
	return &Assessment{
		Score:    DefaultScore,
		Reasons:  map[string]any{"error": err.Error(), "fallback": true},
		Fallback: true,
		Raw:      raw,
	}
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

	prefs, err := json.MarshalIndent(in.Preferences, "", "  ")
	if err != nil {
		return "", err
	}

	profile, err := json.MarshalIndent(in.Profile, "", "  ")
	if err != nil {
		return "", err
	}

	resume := strings.TrimSpace(in.ResumeText)
	if resume == "" {
		resume = "(empty)"
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{RESUME_TEXT}}", resume)
	prompt = strings.ReplaceAll(prompt, "{{PREFERENCES_JSON}}", string(prefs))
	prompt = strings.ReplaceAll(prompt, "{{PROFILE_JSON}}", string(profile))
	prompt = strings.ReplaceAll(prompt, "{{POSTING_JSON}}", string(posting))
	return prompt, nil
}

func postingURL(p *jobs.Posting) string {
	if p == nil {
		return ""
	}
	return p.URL
}
