// Package corpus supplies job postings and syncs them into the store with
// URL de-duplication.
package corpus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/store"
)

// Seeder returns the postings that should exist in the corpus.
type Seeder interface {
	Postings(ctx context.Context) ([]*jobs.Posting, error)
}

// Static serves a fixed list. Every call returns fresh copies.
type Static []*jobs.Posting

func (s Static) Postings(context.Context) ([]*jobs.Posting, error) {
	out := make([]*jobs.Posting, 0, len(s))
	for _, p := range s {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type record struct {
	Title       string `mapstructure:"title"`
	Company     string `mapstructure:"company"`
	Location    string `mapstructure:"location"`
	Description string `mapstructure:"description"`
	Source      string `mapstructure:"source"`
	URL         string `mapstructure:"url"`
	DatePosted  string `mapstructure:"date_posted"`
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Decode converts a loosely typed seed document into postings. The document
// is either a list of postings or an object with a "postings" list.
func Decode(raw any) ([]*jobs.Posting, error) {
	if obj, ok := raw.(map[string]any); ok {
		list, found := obj["postings"]
		if !found {
			return nil, fmt.Errorf("seed document has no postings list")
		}
		raw = list
	}

	var records []record
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &records,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding postings: %w", err)
	}

	postings := make([]*jobs.Posting, 0, len(records))
	for _, r := range records {
		p := &jobs.Posting{
			Title:       strings.TrimSpace(r.Title),
			Company:     strings.TrimSpace(r.Company),
			Location:    strings.TrimSpace(r.Location),
			Description: strings.TrimSpace(r.Description),
			Source:      strings.TrimSpace(r.Source),
			URL:         jobs.CanonicalURL(r.URL),
		}
		if d := strings.TrimSpace(r.DatePosted); d != "" {
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, d); err == nil {
					p.PostedAt = t.UTC()
					break
				}
			}
		}
		postings = append(postings, p)
	}
	return postings, nil
}

type Result struct {
	Total      int
	Inserted   int
	Duplicates int
	Invalid    int
}

// Syncer inserts the seeder's postings that are not yet in the corpus.
type Syncer struct {
	seeder Seeder
	store  store.PostingStore
	logger *zap.Logger
}

func NewSyncer(seeder Seeder, st store.PostingStore, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{seeder: seeder, store: st, logger: logger}
}

// Sync is idempotent: a second call with the same input inserts nothing.
// Store errors abort the sync.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	postings, err := s.seeder.Postings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading seed postings: %w", err)
	}
	return Sync(ctx, s.store, postings, s.logger)
}

// Sync inserts postings into st, skipping known URLs.
func Sync(ctx context.Context, st store.PostingStore, postings []*jobs.Posting, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &Result{Total: len(postings)}
	seen := make(map[string]struct{}, len(postings))

	for _, p := range postings {
		if p == nil {
			res.Invalid++
			continue
		}
		p.URL = jobs.CanonicalURL(p.URL)
		if p.URL == "" || strings.TrimSpace(p.Title) == "" {
			logger.Debug("skip posting without url or title", zap.String("title", p.Title))
			res.Invalid++
			continue
		}
		if _, dup := seen[p.URL]; dup {
			res.Duplicates++
			continue
		}
		seen[p.URL] = struct{}{}

		inserted, err := st.InsertPosting(ctx, p)
		if err != nil {
			return res, fmt.Errorf("inserting %s: %w", p.URL, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Duplicates++
		}
	}

	logger.Info("corpus synced",
		zap.Int("total", res.Total),
		zap.Int("inserted", res.Inserted),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("invalid", res.Invalid),
	)
	return res, nil
}
