package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/review"
	"github.com/spigell/job-triage/internal/utils"
)

const (
	PromptReview          = "Review matches one by one"
	PromptReportByCompany = "Report by companies"
	PromptDraftsToFile    = "Dump drafts to file"
	PromptExit            = "Exit"
	PromptBack            = "back"

	PromptApprove   = "Approve"
	PromptSkip      = "Skip"
	PromptShowDraft = "Show draft"
)

var errExit = errors.New("exit requested")

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Interactively approve or skip drafted matches",
	Run: func(_ *cobra.Command, _ []string) {
		reviewMatches()
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func reviewMatches() {
	ctx := context.Background()

	a := mustApplication(ctx)
	defer a.Close()

	userID, err := a.config.userID()
	if err != nil {
		a.logger.Fatal("resolving user", zap.Error(err))
	}

	svc := a.review()
	prompt := promptui.Select{
		Label: "What next?",
		Items: []string{PromptReview, PromptReportByCompany, PromptDraftsToFile, PromptExit},
	}

	for {
		pending, err := svc.Pending(ctx, userID)
		if err != nil {
			a.logger.Fatal("listing matches", zap.Error(err))
		}

		a.logger.Info("matches waiting for review", zap.Int("count", len(pending)))
		if len(pending) == 0 {
			a.logger.Info("exiting", zap.String("reason", "nothing to review"))
			return
		}

		_, action, err := prompt.Run()
		if err != nil {
			a.logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleReviewAction(ctx, action, a.logger, svc, userID, pending); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			a.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleReviewAction(ctx context.Context, action string, logger *zap.Logger, svc *review.Service, userID string, pending []*review.Item) error {
	switch action {
	case PromptReview:
		return reviewOneByOne(ctx, logger, svc, userID, pending)
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(review.ReportByCompany(pending), "", "  ")
		logger.Info(string(pretty), zap.Int("matches count", len(pending)))
		return nil
	case PromptDraftsToFile:
		filename, err := review.DumpToTmpFile(pending)
		if err != nil {
			return fmt.Errorf("dump drafts to file: %w", err)
		}
		logger.Info("dumping drafts to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func reviewOneByOne(ctx context.Context, logger *zap.Logger, svc *review.Service, userID string, pending []*review.Item) error {
	for {
		if len(pending) == 0 {
			return nil
		}

		labels := make([]string, 0, len(pending)+1)
		for _, item := range pending {
			labels = append(labels, itemLabel(item))
		}

		matchPrompt := promptui.Select{
			Label: "Choose a match and press ENTER",
			Items: append(labels, PromptBack),
			Size:  10,
		}

		idx, selected, err := matchPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		done, err := decide(ctx, logger, svc, userID, pending[idx])
		if err != nil {
			return err
		}
		if done {
			pending = append(pending[:idx], pending[idx+1:]...)
		}
	}
}

// decide asks what to do with one match and reports whether it left review.
func decide(ctx context.Context, logger *zap.Logger, svc *review.Service, userID string, item *review.Item) (bool, error) {
	for {
		actionPrompt := promptui.Select{
			Label: itemLabel(item),
			Items: []string{PromptShowDraft, PromptApprove, PromptSkip, PromptBack},
		}

		_, action, err := actionPrompt.Run()
		if err != nil {
			return false, err
		}

		switch action {
		case PromptShowDraft:
			printDraft(item)
		case PromptApprove:
			if _, err := svc.Approve(ctx, userID, item.Match.ID, review.Edits{}); err != nil {
				return false, fmt.Errorf("approving %s: %w", item.Match.ID, err)
			}
			logger.Info("match approved", zap.String("match_id", item.Match.ID))
			return true, nil
		case PromptSkip:
			reasonPrompt := promptui.Prompt{Label: "Skip reason (optional)"}
			reason, err := reasonPrompt.Run()
			if err != nil {
				return false, err
			}
			if _, err := svc.Skip(ctx, userID, item.Match.ID, reason); err != nil {
				return false, fmt.Errorf("skipping %s: %w", item.Match.ID, err)
			}
			logger.Info("match skipped", zap.String("match_id", item.Match.ID))
			return true, nil
		case PromptBack:
			return false, nil
		}
	}
}

func itemLabel(item *review.Item) string {
	m := item.Match
	label := m.ID
	if m.Posting != nil {
		label = m.Posting.Label()
	}
	return fmt.Sprintf("%3d | %s | %s", m.FitScore, m.Status, label)
}

func printDraft(item *review.Item) {
	if item.Draft == nil {
		fmt.Println("no draft for this match")
		return
	}

	var b strings.Builder
	b.WriteString(item.Draft.CoverLetter)
	b.WriteString("\n\n")
	for q, a := range item.Draft.Answers {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", q, a)
	}
	fmt.Fprintf(&b, "confidence: %.2f\nissues: %s", item.Draft.Notes.Confidence, utils.JoinOrNone(item.Draft.Notes.Issues))
	fmt.Println(b.String())
}
