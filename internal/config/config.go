package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "NEWS_BALANCER_CONFIG"
	databaseURLEnv     = "DATABASE_URL"
	databaseDriverEnv  = "DATABASE_DRIVER"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	generationKeyEnv   = "GENERATION_API_KEY"
	generationModelEnv = "GENERATION_MODEL"
	generationProvEnv  = "GENERATION_PROVIDER"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	logLevelEnv        = "LOG_LEVEL"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

var (
	// ErrMissingCredential means the generation backend has no API key.
	ErrMissingCredential = errors.New("generation api key is not configured")
	// ErrMissingDSN means no store connection string was supplied.
	ErrMissingDSN = errors.New("database dsn is not configured")
)

// Config holds all settings required by the pipeline.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Generation    GenerationConfig   `yaml:"generation"`
	Stages        StagesConfig       `yaml:"stages"`
	Limits        LimitsConfig       `yaml:"limits"`
	Pacing        PacingConfig       `yaml:"pacing"`
	Heuristics    HeuristicsConfig   `yaml:"heuristics"`
	Prompts       map[string]string  `yaml:"prompts"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig describes the article store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// GenerationConfig defines how to contact the text-generation backend.
type GenerationConfig struct {
	Provider string        `yaml:"provider"`
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StageConfig holds sampling parameters of one stage.
type StageConfig struct {
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float64 `yaml:"temperature"`
}

// StagesConfig groups the per-stage sampling parameters.
type StagesConfig struct {
	Relevance StageConfig `yaml:"relevance"`
	Research  StageConfig `yaml:"research"`
	Synthesis StageConfig `yaml:"synthesis"`
	Rewrite   StageConfig `yaml:"rewrite"`
	Probe     StageConfig `yaml:"probe"`
}

// LimitsConfig bounds how much of the article body goes into each prompt, in characters.
type LimitsConfig struct {
	RelevancePrefix int `yaml:"relevancePrefix"`
	SummaryPrefix   int `yaml:"summaryPrefix"`
	SynthesisPrefix int `yaml:"synthesisPrefix"`
}

// PacingConfig sets the minimum interval between backend calls and between articles.
type PacingConfig struct {
	CallInterval    time.Duration `yaml:"callInterval"`
	ArticleInterval time.Duration `yaml:"articleInterval"`
}

// HeuristicsConfig carries the keyword lists used by the relevance and research checks.
type HeuristicsConfig struct {
	NonRelevantKeywords []string `yaml:"nonRelevantKeywords"`
	CitationIndicators  []string `yaml:"citationIndicators"`
	MinResearchLength   int      `yaml:"minResearchLength"`
	NoInfoMarker        string   `yaml:"noInfoMarker"`
	AccessDenialPhrases []string `yaml:"accessDenialPhrases"`
	SectionLabels       []string `yaml:"sectionLabels"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// LoggingConfig selects level and console format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Validate rejects configurations the pipeline must not start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Generation.APIKey) == "" {
		return ErrMissingCredential
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return ErrMissingDSN
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Generation.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported generation provider %q", c.Generation.Provider)
	}

	return nil
}

func loadFromFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseURLEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}

	if v := os.Getenv(anthropicAPIKeyEnv); v != "" {
		c.Generation.APIKey = v
	}
	if v := os.Getenv(generationKeyEnv); v != "" {
		c.Generation.APIKey = v
	}
	if v := os.Getenv(generationModelEnv); v != "" {
		c.Generation.Model = v
	}
	if v := os.Getenv(generationProvEnv); v != "" {
		c.Generation.Provider = strings.ToLower(v)
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Driver: DriverPostgres},
		Generation: GenerationConfig{
			Provider: ProviderAnthropic,
			Endpoint: "https://api.anthropic.com/v1/messages",
			Model:    "claude-3-haiku-20240307",
			Timeout:  120 * time.Second,
		},
		Stages: StagesConfig{
			Relevance: StageConfig{MaxTokens: 200, Temperature: 0.1},
			Research:  StageConfig{MaxTokens: 1500, Temperature: 0.3},
			Synthesis: StageConfig{MaxTokens: 2000, Temperature: 0.3},
			Rewrite:   StageConfig{MaxTokens: 2000, Temperature: 0.4},
			Probe:     StageConfig{MaxTokens: 200, Temperature: 0.1},
		},
		Limits: LimitsConfig{
			RelevancePrefix: 2000,
			SummaryPrefix:   500,
			SynthesisPrefix: 2000,
		},
		Pacing: PacingConfig{
			CallInterval:    time.Second,
			ArticleInterval: 2 * time.Second,
		},
		Heuristics: HeuristicsConfig{
			NonRelevantKeywords: []string{"sports", "entertainment", "business", "routine", "economic"},
			CitationIndicators: []string{
				"sources found", "as reported by", "according to", "in an article",
				"statement by", "said", "in the newspaper", "on the website",
			},
			MinResearchLength:   150,
			NoInfoMarker:        "no additional information found",
			AccessDenialPhrases: []string{"cannot access", "don't have access", "do not have access"},
			SectionLabels: []string{
				"Objective Headline", "Opening", "Agreed Facts", "All Sides",
				"Presenting All Sides", "Missing From the Coverage", "What Is Missing",
				"Broader Context", "Balanced Summary", "Balanced Conclusion",
			},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
