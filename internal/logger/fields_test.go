package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWith(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	With(zap.New(core), "  stage  ", "  score ", "ignored", "   ", "   ", "no key", "dangling").Info("entry")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if len(ctx) != 1 || ctx["stage"] != "score" {
		t.Fatalf("unexpected fields: %v", ctx)
	}

	if With(nil, "k", "v") == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
}

func TestWithRun(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithRun(zap.New(core), " user-1 ", "run-1").Info("collect")
	WithRun(zap.New(core), "user-2", "").Info("collect")

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0].ContextMap()
	if first[FieldUserID] != "user-1" || first[FieldRunID] != "run-1" {
		t.Fatalf("unexpected fields: %v", first)
	}

	second := entries[1].ContextMap()
	if _, ok := second[FieldRunID]; ok {
		t.Fatalf("expected empty run id to be omitted, got %v", second)
	}
}

func TestWithMatchAndModel(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	WithModel(WithMatch(zap.New(core), "m-1"), "gemini", "gemini-2.5-flash").Info("draft")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldMatchID] != "m-1" {
		t.Fatalf("expected match id field, got %v", ctx[FieldMatchID])
	}
	if ctx[FieldProvider] != "gemini" || ctx[FieldModel] != "gemini-2.5-flash" {
		t.Fatalf("unexpected model fields: %v", ctx)
	}
}

func TestNewAndOrNop(t *testing.T) {
	for _, json := range []bool{false, true} {
		l, err := New(json, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("expected debug level to be enabled")
		}
	}

	if OrNop(nil) == nil {
		t.Fatalf("expected nop logger")
	}
}
