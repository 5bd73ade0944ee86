package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across packages.
const (
	FieldUserID   = "user_id"
	FieldRunID    = "run_id"
	FieldMatchID  = "match_id"
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
)

// With attaches key/value string pairs to the logger. Pairs with an empty key
// or value after trimming are dropped, as is a trailing key without a value.
// A nil logger becomes a no-op logger.
func With(log *zap.Logger, pairs ...string) *zap.Logger {
	log = OrNop(log)

	fields := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key := strings.TrimSpace(pairs[i])
		value := strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}

	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// WithRun attaches user and run identifiers.
func WithRun(log *zap.Logger, userID, runID string) *zap.Logger {
	return With(log, FieldUserID, userID, FieldRunID, runID)
}

func WithMatch(log *zap.Logger, matchID string) *zap.Logger {
	return With(log, FieldMatchID, matchID)
}

// WithModel attaches the AI provider and model used for generation calls.
func WithModel(log *zap.Logger, provider, model string) *zap.Logger {
	return With(log, FieldProvider, provider, FieldModel, model)
}
