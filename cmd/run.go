package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once: collect postings, score them and draft applications",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("print-report", "p", false, "print the execution report as JSON to stdout")
}

func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := mustApplication(ctx)
	defer a.Close()

	userID, err := a.config.userID()
	if err != nil {
		a.logger.Fatal("resolving user", zap.Error(err))
	}

	p, err := a.pipeline(ctx)
	if err != nil {
		a.logger.Fatal("building pipeline", zap.Error(err))
	}

	report, err := p.Run(ctx, userID)
	logReport(a.logger, report)

	if printReport, _ := cmd.Flags().GetBool("print-report"); printReport && report != nil {
		pretty, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(pretty))
	}

	if err != nil {
		if pe, ok := pipeline.AsPrecondition(err); ok {
			a.logger.Error("pipeline cannot start",
				zap.String("code", pe.Code),
				zap.String("reason", pe.Message),
				zap.String("hint", "use `job-triage profile import` to load a resume and preferences"),
			)
			return
		}
		a.logger.Error("pipeline failed", zap.Error(err))
	}
}

func logReport(l *zap.Logger, report *pipeline.Report) {
	if report == nil {
		return
	}
	for _, step := range report.Steps {
		l.Info(step.Name,
			zap.String("id", step.ID),
			zap.String("status", string(step.Status)),
			zap.Int("count", step.Count),
			zap.String("message", step.Message),
		)
	}

	s := report.Summary
	l.Info("summary",
		zap.Int("jobs_collected", s.JobsCollected),
		zap.Int("matches_scored", s.MatchesScored),
		zap.Int("drafts_created", s.DraftsCreated),
		zap.Int("needs_review", s.NeedsReview),
		zap.Int("fallback_promoted", s.FallbackPromoted),
		zap.Int64("duration_ms", s.DurationMs),
		zap.Strings("errors", s.Errors),
	)
}
