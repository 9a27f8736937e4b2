// Package config loads promptpad configuration from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full promptpad configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Model     ModelConfig     `mapstructure:"model"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Session   SessionConfig   `mapstructure:"session"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// TemplatesConfig lists extra template directories searched before the defaults.
type TemplatesConfig struct {
	Dirs []string `mapstructure:"dirs"`
}

// ModelConfig configures the model invocation service.
type ModelConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	FastModel      string        `mapstructure:"fast_model"`
	ProModel       string        `mapstructure:"pro_model"`
	ThinkingModel  string        `mapstructure:"thinking_model"`
	ThinkingBudget int           `mapstructure:"thinking_budget"`
	DefaultTier    string        `mapstructure:"default_tier"`
	Temperature    float64       `mapstructure:"temperature"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SessionConfig names the default editing session.
type SessionConfig struct {
	Default string `mapstructure:"default"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(DataDir(), "promptpad.db"),
		},
		Model: ModelConfig{
			FastModel:      "gemini-2.5-flash",
			ProModel:       "gemini-3-pro-preview",
			ThinkingModel:  "gemini-3-pro-preview",
			ThinkingBudget: 4096,
			DefaultTier:    "fast",
			Temperature:    0.7,
			Timeout:        2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Session: SessionConfig{
			Default: "default",
		},
	}
}

// DataDir returns the directory holding promptpad state.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "promptpad")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".local", "share", "promptpad")
	}
	return ".promptpad"
}

// ConfigDir returns the directory holding the default config file.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "promptpad")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "promptpad")
	}
	return ".promptpad"
}

// Load reads configuration. An explicit path must exist; the default path is optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("PROMPTPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Model.FastModel == "" || c.Model.ProModel == "" || c.Model.ThinkingModel == "" {
		return fmt.Errorf("model names for every tier are required")
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("model.timeout must be positive")
	}
	if c.Model.ThinkingBudget < 0 {
		return fmt.Errorf("model.thinking_budget must not be negative")
	}
	switch c.Model.DefaultTier {
	case "fast", "pro", "thinking":
	default:
		return fmt.Errorf("model.default_tier %q is not one of fast, pro, thinking", c.Model.DefaultTier)
	}
	if strings.TrimSpace(c.Session.Default) == "" {
		return fmt.Errorf("session.default is required")
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("templates.dirs", cfg.Templates.Dirs)
	v.SetDefault("model.api_key", cfg.Model.APIKey)
	v.SetDefault("model.fast_model", cfg.Model.FastModel)
	v.SetDefault("model.pro_model", cfg.Model.ProModel)
	v.SetDefault("model.thinking_model", cfg.Model.ThinkingModel)
	v.SetDefault("model.thinking_budget", cfg.Model.ThinkingBudget)
	v.SetDefault("model.default_tier", cfg.Model.DefaultTier)
	v.SetDefault("model.temperature", cfg.Model.Temperature)
	v.SetDefault("model.timeout", cfg.Model.Timeout)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("session.default", cfg.Session.Default)
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}
