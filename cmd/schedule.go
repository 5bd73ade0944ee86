package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline for the configured users on a cron schedule",
	Run: func(_ *cobra.Command, _ []string) {
		schedule()
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().String("spec", "", "cron spec (default is schedule.spec)")
	scheduleCmd.Flags().Bool("run-on-start", false, "run one cycle immediately")
	viper.BindPFlag("schedule.spec", scheduleCmd.Flags().Lookup("spec"))
	viper.BindPFlag("schedule.run-on-start", scheduleCmd.Flags().Lookup("run-on-start"))
}

func schedule() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := mustApplication(ctx)
	defer a.Close()

	p, err := a.pipeline(ctx)
	if err != nil {
		a.logger.Fatal("building pipeline", zap.Error(err))
	}

	users := a.config.Schedule.Users
	if len(users) == 0 && a.config.User != "" {
		users = []string{a.config.User}
	}

	s, err := scheduler.New(p, scheduler.Config{
		Spec:       a.config.Schedule.Spec,
		Users:      users,
		RunOnStart: a.config.Schedule.RunOnStart,
	}, a.logger.Named("scheduler"))
	if err != nil {
		a.logger.Fatal("creating scheduler", zap.Error(err))
	}

	if err := s.Start(ctx); err != nil {
		a.logger.Fatal("starting scheduler", zap.Error(err))
	}

	<-ctx.Done()
	s.Stop()
}
