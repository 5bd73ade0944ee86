package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spigell/job-triage/internal/ai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu       sync.Mutex
	calls    []modelCall
	response *genai.GenerateContentResponse
	err      error
	block    bool
}

type modelCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	deadline bool
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	_, hasDeadline := ctx.Deadline()
	f.calls = append(f.calls, modelCall{model: model, contents: contents, config: config, deadline: hasDeadline})
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.response, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGeneratorJoinsTextParts(t *testing.T) {
	models := &fakeModels{response: textResponse("  first ", "", "second")}
	g := newGenerator(models, Config{Model: "gemini-pro", SystemInstruction: "system"}, zap.NewNop())

	output, err := g.GenerateContent(context.Background(), "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "first\nsecond" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}

	call := models.calls[0]
	if call.model != "gemini-pro" {
		t.Fatalf("unexpected model %q", call.model)
	}
	if !call.deadline {
		t.Fatalf("expected call context to carry a deadline")
	}
	if call.config == nil || call.config.SystemInstruction == nil {
		t.Fatalf("expected system instruction to be set")
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
		t.Fatalf("unexpected system instruction: %q", got)
	}
	if got := call.contents[0].Parts[0].Text; got != "message" {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestGeneratorDoesNotRetry(t *testing.T) {
	models := &fakeModels{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}}
	g := newGenerator(models, Config{}, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "msg"); err == nil {
		t.Fatal("expected error from failing service")
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
	if models.calls[0].config != nil {
		t.Fatalf("expected nil config without system instruction")
	}
	if models.calls[0].model != defaultModel {
		t.Fatalf("expected default model, got %q", models.calls[0].model)
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{response: textResponse("   ")}
	g := newGenerator(models, Config{}, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "msg")
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGeneratorTimeout(t *testing.T) {
	models := &fakeModels{block: true}
	g := newGenerator(models, Config{Timeout: 20 * time.Millisecond}, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "msg")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	models := &fakeModels{response: textResponse("ok")}
	g := newGenerator(models, Config{}, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if len(models.calls) != 0 {
		t.Fatalf("expected no service calls, got %d", len(models.calls))
	}
}

func TestGeneratorRateLimiterHonoursContext(t *testing.T) {
	models := &fakeModels{response: textResponse("ok")}
	g := newGenerator(models, Config{RequestsPerMinute: 1}, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := g.GenerateContent(ctx, "second"); err == nil {
		t.Fatal("expected limiter wait to fail once the context expires")
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected limiter to hold back the second call, got %d calls", len(models.calls))
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), Config{APIKey: " "}, zap.NewNop()); err == nil {
		t.Fatal("expected error without api key")
	}
}
