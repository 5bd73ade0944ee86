package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-triage/internal/pipeline"
	"github.com/spigell/job-triage/internal/scheduler"
	"github.com/spigell/job-triage/internal/store"
)

const (
	app       = "job-triage"
	envPrefix = "JOB_TRIAGE"
)

type Config struct {
	User     string         `mapstructure:"user"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AI       AIConfig       `mapstructure:"ai"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Corpus   CorpusConfig   `mapstructure:"corpus"`
	Drafting DraftingConfig `mapstructure:"drafting"`
	Server   ServerConfig   `mapstructure:"server"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

type StoreConfig struct {
	Driver  string `mapstructure:"driver"`
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
	DSNFile string `mapstructure:"dsn-file"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey            string        `mapstructure:"api-key"`
	APIKeyFile        string        `mapstructure:"api-key-file"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	MaxLogLength      int           `mapstructure:"max-log-length"`
}

type PipelineConfig struct {
	Threshold     int `mapstructure:"threshold"`
	FallbackLimit int `mapstructure:"fallback-limit"`
}

type CorpusConfig struct {
	File      string `mapstructure:"file"`
	URL       string `mapstructure:"url"`
	UserAgent string `mapstructure:"user-agent"`
}

type DraftingConfig struct {
	Questions []string `mapstructure:"questions"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type ScheduleConfig struct {
	Spec       string   `mapstructure:"spec"`
	Users      []string `mapstructure:"users"`
	RunOnStart bool     `mapstructure:"run-on-start"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-triage scores job postings against your profile and drafts applications for the best ones",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-triage.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("user", "u", "", "user id to act for")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.path", app+".db")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.dsn-file", "")
	v.SetDefault("redis.url", "")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.timeout", 60*time.Second)
	v.SetDefault("ai.gemini.requests-per-minute", 10)
	v.SetDefault("ai.gemini.max-log-length", 200)

	v.SetDefault("pipeline.threshold", pipeline.DefaultThreshold)
	v.SetDefault("pipeline.fallback-limit", pipeline.DefaultFallbackLimit)

	v.SetDefault("corpus.file", "")
	v.SetDefault("corpus.url", "")
	v.SetDefault("corpus.user-agent", "")

	v.SetDefault("server.listen", ":8080")

	v.SetDefault("schedule.spec", scheduler.DefaultSpec)
	v.SetDefault("schedule.users", []string{})
	v.SetDefault("schedule.run-on-start", false)
}

func initConfig() {
	// A missing .env file is fine, a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	setDefaults(viper.GetViper())
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Defaults and environment are enough without a config file, but an
		// explicitly requested one must exist and parse.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case store.DriverMemory, store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.Pipeline.Threshold < 0 || c.Pipeline.Threshold > 100 {
		return fmt.Errorf("pipeline.threshold must be within [0, 100], got %d", c.Pipeline.Threshold)
	}
	if c.Corpus.File != "" && c.Corpus.URL != "" {
		return errors.New("corpus.file and corpus.url are mutually exclusive")
	}
	return nil
}

// userID returns the user to act for, failing when none is configured.
func (c *Config) userID() (string, error) {
	user := strings.TrimSpace(c.User)
	if user == "" {
		return "", fmt.Errorf("user is required (set --user, the 'user' key or %s_USER)", envPrefix)
	}
	return user, nil
}
