package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

// LogConfig is the part of the configuration the offline chat log tools need.
// It parses without the bot token.
type LogConfig struct {
	LogsDir        string `env:"LOGS_DIR" envDefault:"chat_logs"`
	ReportTimezone string `env:"REPORT_TIMEZONE" envDefault:"Local"`
}

// ParseLogConfig reads LOGS_DIR and REPORT_TIMEZONE from the environment.
func ParseLogConfig() (*LogConfig, error) {
	lc := &LogConfig{}
	if err := env.Parse(lc); err != nil {
		return nil, err
	}
	if _, err := lc.Location(); err != nil {
		return nil, err
	}
	return lc, nil
}

type Config struct {
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN,required"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`
	AdminUserID      int64   `env:"ADMIN_USER"`
	LogChannelID     int64   `env:"LOG_CHANNEL_ID"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Chat log location and zone
	LogConfig

	// Daily report
	ReportHour   int `env:"REPORT_HOUR" envDefault:"21"`
	ReportMinute int `env:"REPORT_MINUTE" envDefault:"0"`

	// Storage
	AllowlistFilePath string `env:"ALLOWLIST_FILE_PATH" envDefault:"data/allowlist.json"`
	ProfileStore      string `env:"PROFILE_STORE" envDefault:"file"`
	ProfilePath       string `env:"PROFILE_PATH" envDefault:"data/profiles.json"`

	// Formatting
	MessageParseMode string `env:"MESSAGE_PARSE_MODE" envDefault:"Markdown"`
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Parse reads the environment and validates the result.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.ReportHour < 0 || cfg.ReportHour > 23 {
		return nil, fmt.Errorf("REPORT_HOUR out of range: %d", cfg.ReportHour)
	}
	if cfg.ReportMinute < 0 || cfg.ReportMinute > 59 {
		return nil, fmt.Errorf("REPORT_MINUTE out of range: %d", cfg.ReportMinute)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves ReportTimezone; it governs both partition dates and the
// daily fire time.
func (c *LogConfig) Location() (*time.Location, error) {
	if c.ReportTimezone == "" || c.ReportTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE: %w", err)
	}
	return loc, nil
}
