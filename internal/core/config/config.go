// Package config handles configuration loading and validation for dyna.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// Distinct errors for settings a command cannot run without.
var (
	ErrMissingTelegramToken = errors.New("telegram bot token is not set (TELEGRAM_BOT_TOKEN)")
	ErrMissingOpenAIKey     = errors.New("openai api key is not set (OPENAI_API_KEY)")
	ErrMissingOpenAIModel   = errors.New("openai model is not set (OPENAI_MODEL)")
	ErrMissingDynalistToken = errors.New("dynalist token is not set (DYNALIST_TOKEN)")
)

// Config holds the application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Dynalist DynalistConfig `yaml:"dynalist"`
	Agent    AgentConfig    `yaml:"agent"`
	Bot      BotConfig      `yaml:"bot"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Database DatabaseConfig `yaml:"database"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// TelegramConfig configures the chat transport.
type TelegramConfig struct {
	Token       string `yaml:"token"`
	PollTimeout int    `yaml:"poll_timeout"` // seconds
}

// OpenAIConfig configures the chat-completions endpoint.
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DynalistConfig configures the outline API. Token is only used by CLI
// commands; chat users register their own.
type DynalistConfig struct {
	Token   string        `yaml:"token"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AgentConfig tunes the tool-calling runtime.
type AgentConfig struct {
	MaxSteps        int           `yaml:"max_steps"`
	CheckpointTTL   time.Duration `yaml:"checkpoint_ttl"`
	MaxHistory      int           `yaml:"max_history"`
	MemoryListTitle string        `yaml:"memory_list_title"`
	// SystemPrompt is a template file path. Empty uses the built-in prompt.
	SystemPrompt string `yaml:"system_prompt"`
}

// BotConfig tunes turn handling.
type BotConfig struct {
	ProcessingTTL  time.Duration `yaml:"processing_ttl"`
	TypingInterval time.Duration `yaml:"typing_interval"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

// WebhookConfig configures the HTTP server used in webhook mode.
type WebhookConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
	Secret string `yaml:"secret"`
	Pprof  bool   `yaml:"pprof"`
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Telegram: TelegramConfig{
			PollTimeout: 30,
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o-mini",
			BaseURL: "https://api.openai.com",
			Timeout: 90 * time.Second,
		},
		Dynalist: DynalistConfig{
			BaseURL: "https://dynalist.io/api/v1",
			Timeout: 30 * time.Second,
		},
		Agent: AgentConfig{
			MaxSteps:        12,
			CheckpointTTL:   48 * time.Hour,
			MaxHistory:      60,
			MemoryListTitle: "AI SYSTEM MEMORY",
		},
		Bot: BotConfig{
			ProcessingTTL:  180 * time.Second,
			TypingInterval: 4 * time.Second,
			MaxConcurrent:  16,
			SweepInterval:  5 * time.Minute,
		},
		Webhook: WebhookConfig{
			Listen: ":8080",
			Path:   "/api/webhook",
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path, applies environment
// overrides and sets the data directory. A missing file yields defaults.
func Load(configPath, dataDir string) (*Config, error) {
	return LoadWithEnv(configPath, dataDir, os.Getenv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(configPath, dataDir string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyEnv(getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv overrides file values with the process environment.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	set(&c.Webhook.Secret, "TELEGRAM_WEBHOOK_SECRET")
	set(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&c.OpenAI.Model, "MODEL", "OPENAI_MODEL")
	set(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	set(&c.Dynalist.Token, "DYNALIST_TOKEN")
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	setDefault(&c.Telegram.PollTimeout, d.Telegram.PollTimeout)
	setDefault(&c.OpenAI.Model, d.OpenAI.Model)
	setDefault(&c.OpenAI.BaseURL, d.OpenAI.BaseURL)
	setDefault(&c.OpenAI.Timeout, d.OpenAI.Timeout)
	setDefault(&c.Dynalist.BaseURL, d.Dynalist.BaseURL)
	setDefault(&c.Dynalist.Timeout, d.Dynalist.Timeout)
	setDefault(&c.Agent.MaxSteps, d.Agent.MaxSteps)
	setDefault(&c.Agent.CheckpointTTL, d.Agent.CheckpointTTL)
	setDefault(&c.Agent.MaxHistory, d.Agent.MaxHistory)
	setDefault(&c.Agent.MemoryListTitle, d.Agent.MemoryListTitle)
	setDefault(&c.Bot.ProcessingTTL, d.Bot.ProcessingTTL)
	setDefault(&c.Bot.TypingInterval, d.Bot.TypingInterval)
	setDefault(&c.Bot.MaxConcurrent, d.Bot.MaxConcurrent)
	setDefault(&c.Bot.SweepInterval, d.Bot.SweepInterval)
	setDefault(&c.Webhook.Listen, d.Webhook.Listen)
	setDefault(&c.Webhook.Path, d.Webhook.Path)
	setDefault(&c.Database.MaxOpenConns, d.Database.MaxOpenConns)
	setDefault(&c.Database.MaxIdleConns, d.Database.MaxIdleConns)
	setDefault(&c.Database.BusyTimeout, d.Database.BusyTimeout)
}

func setDefault[T comparable](dst *T, def T) {
	var zero T
	if *dst == zero {
		*dst = def
	}
}

// Validate checks that the configuration is structurally valid. Missing
// credentials are not checked here; see RequireBot and friends.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, notEmpty),
		criterio.Run("agent.max_steps", c.Agent.MaxSteps, atLeast(1)),
		criterio.Run("agent.checkpoint_ttl", c.Agent.CheckpointTTL, positive),
		criterio.Run("agent.max_history", c.Agent.MaxHistory, atLeast(2)),
		criterio.Run("bot.processing_ttl", c.Bot.ProcessingTTL, positive),
		criterio.Run("bot.typing_interval", c.Bot.TypingInterval, positive),
		criterio.Run("bot.max_concurrent", c.Bot.MaxConcurrent, atLeast(1)),
		criterio.Run("bot.sweep_interval", c.Bot.SweepInterval, positive),
		criterio.Run("telegram.poll_timeout", c.Telegram.PollTimeout, atLeast(1)),
		criterio.Run("webhook.path", c.Webhook.Path, webhookPath),
		c.validateTypingInterval(),
	)
}

// validateTypingInterval keeps the indicator refresh inside Telegram's
// five second display window.
func (c *Config) validateTypingInterval() error {
	if c.Bot.TypingInterval >= 5*time.Second {
		return criterio.NewFieldErrors("bot.typing_interval", fmt.Errorf("must be shorter than 5s, got %s", c.Bot.TypingInterval))
	}
	return nil
}

// RequireBot checks the settings needed to run the chat bot.
func (c *Config) RequireBot() error {
	var errs criterio.FieldErrorsBuilder
	if c.Telegram.Token == "" {
		errs = errs.Append("telegram.token", ErrMissingTelegramToken)
	}
	return criterio.ValidateStruct(errs.ToError(), c.RequireAgent())
}

// RequireAgent checks the settings needed to invoke the language model.
func (c *Config) RequireAgent() error {
	var errs criterio.FieldErrorsBuilder
	if c.OpenAI.APIKey == "" {
		errs = errs.Append("openai.api_key", ErrMissingOpenAIKey)
	}
	if c.OpenAI.Model == "" {
		errs = errs.Append("openai.model", ErrMissingOpenAIModel)
	}
	return errs.ToError()
}

// RequireDynalistToken checks the credential used by CLI commands.
func (c *Config) RequireDynalistToken() error {
	if c.Dynalist.Token == "" {
		return criterio.NewFieldErrors("dynalist.token", ErrMissingDynalistToken)
	}
	return nil
}

// DatabaseDir returns the directory holding the SQLite database.
func (c *Config) DatabaseDir() string {
	return filepath.Join(c.DataDir, "db")
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func atLeast(n int) func(int) error {
	return func(v int) error {
		if v < n {
			return fmt.Errorf("must be at least %d, got %d", n, v)
		}
		return nil
	}
}

func positive(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", d)
	}
	return nil
}

// reservedPaths are served by the webhook server itself.
var reservedPaths = []string{"/", "/api"}

// webhookPath accepts a literal absolute route that does not collide with
// the status or profiling routes.
func webhookPath(p string) error {
	switch {
	case len(p) == 0 || p[0] != '/':
		return fmt.Errorf("must start with /, got %q", p)
	case slices.Contains(reservedPaths, p):
		return fmt.Errorf("%q is reserved for the status endpoint", p)
	case strings.HasPrefix(p, "/debug/pprof"):
		return fmt.Errorf("%q is reserved for profiling", p)
	case strings.ContainsAny(p, "{} \t\n"):
		return fmt.Errorf("must be a literal path without wildcards or spaces, got %q", p)
	}
	return nil
}
