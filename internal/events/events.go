// Package events fans out pipeline and review notifications. Publishing is
// best effort: failures are logged and never fail the caller.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const Channel = "job-triage:events"

const (
	PipelineCompleted = "EVENT_PIPELINE_COMPLETED"
	DraftCreated      = "EVENT_DRAFT_CREATED"
	MatchApplied      = "EVENT_MATCH_APPLIED"
	MatchSkipped      = "EVENT_MATCH_SKIPPED"
)

type Event struct {
	Type    string         `json:"type"`
	UserID  string         `json:"userId"`
	RunID   string         `json:"runId,omitempty"`
	MatchID string         `json:"matchId,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Emit stamps and publishes e, logging instead of returning failures.
func Emit(ctx context.Context, p Publisher, logger *zap.Logger, e Event) {
	if p == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil && logger != nil {
		logger.Warn("publish event failed", zap.String("type", e.Type), zap.Error(err))
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Memory keeps published events in process.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Events returns a snapshot of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Types returns the event types in publish order.
func (m *Memory) Types() []string {
	events := m.Events()
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects to redisURL and verifies the connection.
func NewRedisPublisher(ctx context.Context, redisURL string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisPublisher(rdb), nil
}

func newRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: rdb, channel: Channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
