package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config is read from NOTE_TAKER_* environment variables, e.g.
// NOTE_TAKER_HTTP_PORT or NOTE_TAKER_OLLAMA_HOST.
type Config struct {
	// local maps to sqlite; cloud-dev and cloud map to postgres.
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local" validate:"oneof=local cloud-dev cloud"`
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto" validate:"oneof=sqlite postgres"`
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8000" validate:"min=1,max=65535"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`

	LLMProvider       string `envconfig:"LLM_PROVIDER" default:"ollama" validate:"oneof=ollama openai"`
	OllamaHost        string `envconfig:"OLLAMA_HOST" default:"http://ollama:11434" validate:"omitempty,url"`
	OllamaModel       string `envconfig:"OLLAMA_MODEL" default:"llama3.2:1b"`
	OpenAIBaseURL     string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1" validate:"omitempty,url"`
	OpenAIAPIKey      string `envconfig:"OPENAI_API_KEY" default:"" validate:"required_if=LLMProvider openai"`
	OpenAIModel       string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	ClassifyModel     string `envconfig:"CLASSIFY_MODEL" default:"deepseek-r1:8b"`
	LLMTimeoutSeconds int    `envconfig:"LLM_TIMEOUT_SECONDS" default:"60" validate:"min=0"`
	LLMBreakerEnabled bool   `envconfig:"LLM_BREAKER_ENABLED" default:"true"`

	// Empty PromptsDir serves the embedded defaults and disables watching.
	PromptsDir   string `envconfig:"PROMPTS_DIR" default:""`
	PromptsWatch bool   `envconfig:"PROMPTS_WATCH" default:"true"`

	RateLimitEnabled        bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitMessages       int  `envconfig:"RATE_LIMIT_MESSAGES" default:"10" validate:"min=1"`
	RateLimitNotes          int  `envconfig:"RATE_LIMIT_NOTES" default:"20" validate:"min=1"`
	RateLimitTasks          int  `envconfig:"RATE_LIMIT_TASKS" default:"20" validate:"min=1"`
	RateLimitDefault        int  `envconfig:"RATE_LIMIT_DEFAULT" default:"30" validate:"min=1"`
	RateLimitWindowSeconds  int  `envconfig:"RATE_LIMIT_WINDOW_SECONDS" default:"60" validate:"min=1"`
	RateLimitCleanupSeconds int  `envconfig:"RATE_LIMIT_CLEANUP_SECONDS" default:"300" validate:"min=1"`

	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30" validate:"min=1"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2" validate:"min=1"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5" validate:"min=0"`

	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"json" validate:"omitempty,oneof=json console"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`

	DefaultUserEmail string `envconfig:"DEFAULT_USER_EMAIL" default:"default@example.com" validate:"required,email"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ResolveDefaults derives DBDriver from BuildTarget when it is "auto" or
// empty, fills the sqlite path, then validates every field.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		switch c.BuildTarget {
		case "local":
			c.DBDriver = "sqlite"
		case "cloud-dev", "cloud":
			c.DBDriver = "postgres"
		}
	}
	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		c.SQLitePath = "data/notes.db"
	}
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}
	return nil
}

// describe names the offending environment variable for each failed field.
func describe(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	t := reflect.TypeOf(Config{})
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		name := fe.Field()
		if f, ok := t.FieldByName(fe.StructField()); ok {
			name = "NOTE_TAKER_" + f.Tag.Get("envconfig")
		}
		msgs = append(msgs, fmt.Sprintf("%s=%v fails %s", name, fe.Value(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// New loads the configuration from the environment and resolves defaults.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("NOTE_TAKER", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("llm_provider", cfg.LLMProvider).
		Str("model", cfg.ChatModel()).
		Str("prompts_dir", cfg.PromptsDir).
		Bool("rate_limit_enabled", cfg.RateLimitEnabled).
		Bool("postgres_dsn_set", cfg.PostgresDSN != "").
		Msg("Configuration loaded")
	return &cfg, nil
}

// NewForTesting returns a valid local configuration without reading the environment.
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		DBDriver:                  "sqlite",
		HTTPPort:                  8000,
		LLMProvider:               "ollama",
		OllamaHost:                "http://localhost:11434",
		OllamaModel:               "llama3.2:1b",
		ClassifyModel:             "deepseek-r1:8b",
		LLMTimeoutSeconds:         5,
		RateLimitEnabled:          true,
		RateLimitMessages:         10,
		RateLimitNotes:            20,
		RateLimitTasks:            20,
		RateLimitDefault:          30,
		RateLimitWindowSeconds:    60,
		RateLimitCleanupSeconds:   300,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		BootstrapTimeoutSeconds:   1,
		LogLevel:                  "debug",
		DefaultUserEmail:          "default@example.com",
	}
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ChatModel returns the model name for the selected provider.
func (c *Config) ChatModel() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIModel
	}
	return c.OllamaModel
}

// LLMTimeout returns the provider request timeout.
func (c *Config) LLMTimeout() time.Duration {
	if c.LLMTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// RateLimitWindow returns the sliding window shared by all endpoint classes.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}
