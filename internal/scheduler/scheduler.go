// Package scheduler triggers pipeline runs for configured users on a cron
// schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/logger"
	"github.com/spigell/job-triage/internal/pipeline"
	"github.com/spigell/job-triage/internal/utils"
)

const DefaultSpec = "@daily"

// Runner runs the pipeline for one user.
type Runner interface {
	Run(ctx context.Context, userID string) (*pipeline.Report, error)
}

type Config struct {
	Spec       string
	Users      []string
	RunOnStart bool
}

// Outcome is the result of one user's run within a cycle.
type Outcome struct {
	UserID string
	Report *pipeline.Report
	Err    error
}

type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	cfg    Config
	logger *zap.Logger
	wg     sync.WaitGroup
}

func New(runner Runner, cfg Config, log *zap.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	cfg.Users = utils.CompactStrings(cfg.Users)
	if len(cfg.Users) == 0 {
		return nil, errors.New("at least one user is required")
	}
	if strings.TrimSpace(cfg.Spec) == "" {
		cfg.Spec = DefaultSpec
	}

	log = logger.OrNop(log)
	cronLog := cronLogger{log: log.Sugar()}

	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.SkipIfStillRunning(cronLog))),
		runner: runner,
		cfg:    cfg,
		logger: log,
	}, nil
}

// Start registers the job and starts the cron loop. With RunOnStart one cycle
// is also fired immediately in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("adding cron job %q: %w", s.cfg.Spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.cfg.Spec), zap.Strings("users", s.cfg.Users))

	if s.cfg.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.RunOnce(ctx)
		}()
	}
	return nil
}

// Stop waits for running cycles to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// RunOnce runs the pipeline for every configured user in order. One user's
// failure never stops the others.
func (s *Scheduler) RunOnce(ctx context.Context) []Outcome {
	s.logger.Info("scheduled cycle started", zap.Int("users", len(s.cfg.Users)))

	outcomes := make([]Outcome, 0, len(s.cfg.Users))
	for _, userID := range s.cfg.Users {
		if ctx.Err() != nil {
			s.logger.Warn("scheduled cycle interrupted", zap.Error(ctx.Err()))
			break
		}

		report, err := s.runner.Run(ctx, userID)
		outcomes = append(outcomes, Outcome{UserID: userID, Report: report, Err: err})

		log := s.logger.With(zap.String(logger.FieldUserID, userID))
		if err != nil {
			if pe, ok := pipeline.AsPrecondition(err); ok {
				log.Warn("scheduled run skipped", zap.String("code", pe.Code), zap.String("reason", pe.Message))
				continue
			}
			log.Error("scheduled run failed", zap.Error(err))
			continue
		}

		log.Info("scheduled run completed",
			zap.Int("jobs_collected", report.Summary.JobsCollected),
			zap.Int("matches_scored", report.Summary.MatchesScored),
			zap.Int("drafts_created", report.Summary.DraftsCreated),
			zap.Int64("duration_ms", report.Summary.DurationMs),
		)
	}

	s.logger.Info("scheduled cycle complete")
	return outcomes
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
