package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/store"
)

// candidateFile is the YAML (or JSON) document read by `profile import`.
type candidateFile struct {
	User        string           `mapstructure:"user"`
	Profile     jobs.Profile     `mapstructure:"profile"`
	Preferences jobs.Preferences `mapstructure:"preferences"`
	// Resume is inline resume text. ResumeFile points to a plain text file.
	Resume     string `mapstructure:"resume"`
	ResumeFile string `mapstructure:"resume-file"`
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage candidate profiles",
}

var profileImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load profile, preferences and resume text from a YAML file",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		importProfile(args[0])
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored candidate as JSON",
	Run: func(_ *cobra.Command, _ []string) {
		showProfile()
	},
}

func init() {
	profileCmd.AddCommand(profileImportCmd, profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}

func readCandidateFile(path string) (*candidateFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	var out candidateFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", path, err)
	}

	if out.ResumeFile != "" {
		data, err := os.ReadFile(out.ResumeFile)
		if err != nil {
			return nil, fmt.Errorf("reading resume file: %w", err)
		}
		out.Resume = string(data)
	}
	out.Resume = strings.TrimSpace(out.Resume)
	return &out, nil
}

// saveCandidate stores everything present in f. An empty resume keeps the
// existing ones.
func saveCandidate(ctx context.Context, st store.CandidateStore, userID string, f *candidateFile) error {
	if err := st.SaveProfile(ctx, userID, f.Profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	if err := st.SavePreferences(ctx, userID, f.Preferences); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	if f.Resume != "" {
		if _, err := st.AddResume(ctx, userID, f.Resume); err != nil {
			return fmt.Errorf("adding resume: %w", err)
		}
	}
	return nil
}

func importProfile(path string) {
	ctx := context.Background()

	a := mustApplication(ctx)
	defer a.Close()

	f, err := readCandidateFile(path)
	if err != nil {
		a.logger.Fatal("reading candidate file", zap.Error(err))
	}

	userID := strings.TrimSpace(f.User)
	if userID == "" {
		if userID, err = a.config.userID(); err != nil {
			a.logger.Fatal("resolving user", zap.Error(err))
		}
	}

	if err := saveCandidate(ctx, a.store, userID, f); err != nil {
		a.logger.Fatal("importing candidate", zap.Error(err))
	}

	a.logger.Info("candidate imported",
		zap.String("user", userID),
		zap.Strings("roles", f.Preferences.Roles),
		zap.Bool("resume_added", f.Resume != ""),
	)
}

func showProfile() {
	ctx := context.Background()

	a := mustApplication(ctx)
	defer a.Close()

	userID, err := a.config.userID()
	if err != nil {
		a.logger.Fatal("resolving user", zap.Error(err))
	}

	c, err := a.store.GetCandidate(ctx, userID)
	if err != nil {
		a.logger.Fatal("loading candidate", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(c, "", "  ")
	fmt.Println(string(pretty))
}
