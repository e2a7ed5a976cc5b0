package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL     string `envconfig:"DATABASE_URL" required:"true"`
	TelegramToken   string `envconfig:"TELEGRAM_TOKEN" default:""`
	AdminTelegramID int64  `envconfig:"ADMIN_TELEGRAM_ID" default:"0"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	MetricsAddr     string `envconfig:"METRICS_ADDR" default:":9090"`
	SeedDemoData    bool   `envconfig:"SEED_DEMO_DATA" default:"false"`

	DBPool DBPoolConfig
	Worker WorkerConfig
	AI     AIConfig

	CronSpecStaleSweep     string `envconfig:"CRON_SPEC_STALE_SWEEP" default:"*/10 * * * *"`
	CronSpecMonthlyDigest  string `envconfig:"CRON_SPEC_MONTHLY_DIGEST" default:"0 * * * *"` // hourly; the body only acts on the last day of month, once
	SummaryLegacyHTML      bool   `envconfig:"SUMMARY_LEGACY_HTML" default:"false"`
	EscalationAlertEnabled bool   `envconfig:"ESCALATION_ALERTS" default:"true"`
}

type DBPoolConfig struct {
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	PingTimeout     time.Duration `envconfig:"DB_PING_TIMEOUT" default:"5s"`
}

type WorkerConfig struct {
	Enabled         bool          `envconfig:"WORKER_ENABLED" default:"true"`
	PollInterval    time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"10s"`
	FailureCooldown time.Duration `envconfig:"WORKER_FAILURE_COOLDOWN" default:"60s"`
	StaleJobAfter   time.Duration `envconfig:"STALE_JOB_AFTER" default:"5m"`
}

type AIConfig struct {
	Provider          string        `envconfig:"AI_PROVIDER" default:"deepseek"`
	DeepSummaries     bool          `envconfig:"AI_DEEP_SUMMARIES" default:"false"`
	Timeout           time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	MaxTokens         int           `envconfig:"AI_MAX_TOKENS" default:"800"`
	RequestsPerMinute int           `envconfig:"AI_REQUESTS_PER_MINUTE" default:"30"`
	ModerationEnabled bool          `envconfig:"AI_MODERATION" default:"false"`

	DeepSeekAPIKey string `envconfig:"DEEPSEEK_API_KEY" default:""`
	DeepSeekModel  string `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	DeepSeekURL    string `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com/v1/"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIURL    string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1/"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY" default:""`
	AnthropicModel  string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5"`
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Environment = strings.ToLower(cfg.Environment)
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))

	if cfg.Worker.PollInterval <= 0 {
		return nil, fmt.Errorf("WORKER_POLL_INTERVAL must be positive, got %s", cfg.Worker.PollInterval)
	}
	if cfg.Worker.StaleJobAfter <= cfg.AI.Timeout {
		return nil, fmt.Errorf("STALE_JOB_AFTER (%s) must exceed AI_TIMEOUT (%s)", cfg.Worker.StaleJobAfter, cfg.AI.Timeout)
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}

	return cfg, nil
}
