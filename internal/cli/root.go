// Package cli implements the promptpad command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/opencode-ai/promptpad/internal/config"
	"github.com/opencode-ai/promptpad/internal/db"
	"github.com/opencode-ai/promptpad/internal/logging"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile        string
	sessionFlag    string
	jsonOutput     bool
	jsonlOutput    bool
	logLevel       string
	nonInteractive bool
	noProgress     bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "promptpad",
	Short: "Author, fill and send prompt templates",
	Long: `promptpad manages prompt templates with {{variable}} placeholders.

Variable values persist per session, so a value typed for one template is
offered again in every other template that uses the same name.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput && jsonlOutput {
			return fmt.Errorf("--json and --jsonl are mutually exclusive")
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logging.Init(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		appConfig = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/promptpad/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "editing session whose variable values are used")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	rootCmd.PersistentFlags().BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt for input")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress output")
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

// SessionID returns the active editing session.
func SessionID() string {
	if id := strings.TrimSpace(sessionFlag); id != "" {
		return id
	}
	if id := strings.TrimSpace(GetConfig().Session.Default); id != "" {
		return id
	}
	return "default"
}

func openDatabase() (*db.DB, error) {
	cfg := GetConfig()
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := database.MigrateUp(context.Background()); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}

// PreflightError is a user-facing error with a hint and a next step.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
	Err      error
}

func (e *PreflightError) Error() string {
	return e.Message
}

func (e *PreflightError) Unwrap() error {
	return e.Err
}

func printError(err error) {
	if IsJSONOutput() || IsJSONLOutput() {
		payload := map[string]any{"error": err.Error()}
		var preflight *PreflightError
		if errors.As(err, &preflight) {
			if preflight.Hint != "" {
				payload["hint"] = preflight.Hint
			}
			if preflight.NextStep != "" {
				payload["next_step"] = preflight.NextStep
			}
		}
		_ = WriteOutput(os.Stderr, payload)
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var preflight *PreflightError
	if errors.As(err, &preflight) {
		if preflight.Hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", preflight.Hint)
		}
		if preflight.NextStep != "" {
			fmt.Fprintf(os.Stderr, "Next: %s\n", preflight.NextStep)
		}
	}
}
