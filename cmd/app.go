package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/ai"
	"github.com/spigell/job-triage/internal/ai/gemini"
	"github.com/spigell/job-triage/internal/corpus"
	"github.com/spigell/job-triage/internal/drafting"
	"github.com/spigell/job-triage/internal/events"
	"github.com/spigell/job-triage/internal/logger"
	"github.com/spigell/job-triage/internal/pipeline"
	"github.com/spigell/job-triage/internal/review"
	"github.com/spigell/job-triage/internal/scoring"
	"github.com/spigell/job-triage/internal/secrets"
	"github.com/spigell/job-triage/internal/store"
	"github.com/spigell/job-triage/internal/store/memory"
	"github.com/spigell/job-triage/internal/store/postgres"
	"github.com/spigell/job-triage/internal/store/sqlite"
)

// application holds the wiring shared by all commands.
type application struct {
	config    *Config
	logger    *zap.Logger
	store     store.Store
	publisher events.Publisher

	closers []func() error
}

// mustApplication builds the logger, config, store and publisher or exits.
func mustApplication(ctx context.Context) *application {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	l.Info("starting the job-triage", zap.String("version", version))
	l.Debug("starting with config",
		zap.String("store_driver", config.Store.Driver),
		zap.String("model", geminiModel(config)),
		zap.Int("threshold", config.Pipeline.Threshold),
	)

	a := &application{config: config, logger: l}

	st, err := openStore(ctx, config.Store, l)
	if err != nil {
		l.Fatal("opening store", zap.Error(err))
	}
	a.store = st
	a.closers = append(a.closers, st.Close)

	a.publisher = events.Nop{}
	if url := strings.TrimSpace(config.Redis.URL); url != "" {
		pub, err := events.NewRedisPublisher(ctx, url)
		if err != nil {
			// Events are best effort, the tool works without them.
			l.Warn("redis is unavailable, events are disabled", zap.Error(err))
		} else {
			a.publisher = pub
			a.closers = append(a.closers, pub.Close)
		}
	}

	return a
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("closing resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func openStore(ctx context.Context, cfg StoreConfig, l *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case store.DriverMemory:
		l.Warn("using in-memory store, nothing will be persisted")
		return memory.New(), nil
	case store.DriverSQLite:
		l.Debug("opening sqlite store", zap.String("path", cfg.Path))
		st, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case store.DriverPostgres:
		dsn, err := secrets.Load(secrets.Source{
			Name:  "postgres dsn",
			File:  cfg.DSNFile,
			Env:   "DATABASE_URL",
			Value: cfg.DSN,
		})
		if err != nil {
			return nil, err
		}
		st, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// generator returns nil without an error when no API key is configured.
// Scoring and drafting then run on their fallback values.
func (a *application) generator(ctx context.Context) (ai.Generator, error) {
	cfg := a.config.AI
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != ai.ProviderGemini {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		a.logger.Warn("ai is not configured, fallback scores and drafts will be used")
		return nil, nil
	}

	apiKey, err := secrets.LoadOptional(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
		Value: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		a.logger.Warn("gemini api key is not set, fallback scores and drafts will be used",
			zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY"),
		)
		return nil, nil
	}

	gen, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:            apiKey,
		Model:             cfg.Gemini.Model,
		Timeout:           cfg.Gemini.Timeout,
		RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
		MaxLogLength:      cfg.Gemini.MaxLogLength,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func (a *application) seeder() corpus.Seeder {
	cfg := a.config.Corpus
	switch {
	case cfg.File != "":
		return corpus.File{Path: cfg.File}
	case cfg.URL != "":
		return corpus.HTTP{URL: cfg.URL, UserAgent: cfg.UserAgent, Logger: a.logger}
	}

	seed, err := corpus.Default()
	if err != nil {
		a.logger.Fatal("loading built-in corpus", zap.Error(err))
	}
	return seed
}

func (a *application) pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	gen, err := a.generator(ctx)
	if err != nil {
		return nil, fmt.Errorf("building ai generator: %w", err)
	}

	maxLog := 0
	if a.config.AI.Gemini != nil {
		maxLog = a.config.AI.Gemini.MaxLogLength
	}

	return pipeline.New(pipeline.Config{
		Threshold:     a.config.Pipeline.Threshold,
		FallbackLimit: a.config.Pipeline.FallbackLimit,
	}, pipeline.Deps{
		Store:     a.store,
		Seeder:    a.seeder(),
		Scorer:    scoring.New(gen, a.logger.Named("scoring"), maxLog),
		Drafter:   drafting.New(gen, a.config.Drafting.Questions, a.logger.Named("drafting"), maxLog),
		Publisher: a.publisher,
		Logger:    a.logger,
	})
}

func (a *application) review() *review.Service {
	return review.New(a.store, a.publisher, a.logger)
}

func geminiModel(c *Config) string {
	if c.AI.Gemini == nil {
		return ""
	}
	return c.AI.Gemini.Model
}
