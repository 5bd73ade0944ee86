package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/corpus"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the job postings corpus",
}

var corpusSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Insert postings from the configured source, skipping known URLs",
	Run: func(_ *cobra.Command, _ []string) {
		syncCorpus()
	},
}

func init() {
	corpusCmd.AddCommand(corpusSyncCmd)
	rootCmd.AddCommand(corpusCmd)
}

func syncCorpus() {
	ctx := context.Background()

	a := mustApplication(ctx)
	defer a.Close()

	res, err := corpus.NewSyncer(a.seeder(), a.store, a.logger).Sync(ctx)
	if err != nil {
		a.logger.Fatal("syncing corpus", zap.Error(err))
	}

	a.logger.Info("corpus is up to date",
		zap.Int("inserted", res.Inserted),
		zap.Int("already_known", res.Duplicates),
	)
}
