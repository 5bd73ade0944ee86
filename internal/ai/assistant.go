package ai

import (
	"context"
	"errors"
)

const ProviderGemini = "gemini"

// ErrEmptyResponse is returned by generators when the service answers without text.
var ErrEmptyResponse = errors.New("ai provider returned empty response")

// Generator is a single-shot text completion service.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
