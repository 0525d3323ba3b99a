// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type AppConfig struct {
	Name           string        `yaml:"name"`
	Version        string        `yaml:"version"`
	HTTPPort       int           `yaml:"http_port"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // bounds a whole workflow run
	MaxUploadMB    int           `yaml:"max_upload_mb"`
}

type BotConfig struct {
	Token    string `yaml:"token"`
	Workers  int    `yaml:"workers"` // polling workers
	Language string `yaml:"language"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	WorkspaceTTL time.Duration `yaml:"workspace_ttl"`
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"` // LiteLLM or any OpenAI-compatible proxy
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

type JobSearchConfig struct {
	BaseURL      string        `yaml:"base_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	APIKey       string        `yaml:"api_key"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	PerPage      int           `yaml:"per_page"`
}

type EventsConfig struct {
	RabbitURL string `yaml:"rabbitmq_url"`
	Exchange  string `yaml:"exchange"`
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

func (s StorageConfig) Enabled() bool { return s.Bucket != "" && s.AccessKey != "" }

type WorkerConfig struct {
	PoolSize        int           `yaml:"pool_size"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type Config struct {
	App       AppConfig       `yaml:"app"`
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	JobSearch JobSearchConfig `yaml:"job_search"`
	Events    EventsConfig    `yaml:"events"`
	Storage   StorageConfig   `yaml:"storage"`
	Workers   WorkerConfig    `yaml:"workers"`
	Security  SecurityConfig  `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path (a missing file is allowed), applies
// defaults and then environment overrides. A .env file in the working
// directory is loaded first when present.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults + env only
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg, os.Getenv)
	applyDefaults(&cfg)

	cfg.Runtime.Dev = dev
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "job-search-mas"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "1.0.0"
	}
	if cfg.App.HTTPPort <= 0 {
		cfg.App.HTTPPort = 8000
	}
	if cfg.App.RequestTimeout <= 0 {
		cfg.App.RequestTimeout = 30 * time.Minute
	}
	if cfg.App.MaxUploadMB <= 0 {
		cfg.App.MaxUploadMB = 10
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "ru"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.SessionTTL = normalizeTTL(cfg.Redis.SessionTTL, time.Hour)
	cfg.Redis.WorkspaceTTL = normalizeTTL(cfg.Redis.WorkspaceTTL, 2*time.Hour)

	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 2048
	}

	if cfg.JobSearch.BaseURL == "" {
		cfg.JobSearch.BaseURL = "https://api.hh.ru"
	}
	if cfg.JobSearch.UserAgent == "" {
		cfg.JobSearch.UserAgent = "JobSearchMAS/1.0"
	}
	if cfg.JobSearch.Timeout <= 0 {
		cfg.JobSearch.Timeout = 30 * time.Second
	}
	if cfg.JobSearch.PerPage <= 0 {
		cfg.JobSearch.PerPage = 20
	}

	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "session_updates"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "auto"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "resumes"
	}
	if cfg.Workers.PoolSize <= 0 {
		cfg.Workers.PoolSize = 4
	}
	cfg.Workers.JanitorInterval = normalizeTTL(cfg.Workers.JanitorInterval, 5*time.Minute)
}

func applyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&cfg.AI.OpenAIBaseURL, "LITELLM_BASE_URL", "OPENAI_BASE_URL")
	set(&cfg.AI.OpenAIKey, "LITELLM_API_KEY", "OPENAI_API_KEY")
	set(&cfg.AI.GeminiKey, "GEMINI_API_KEY")
	set(&cfg.AI.DefaultModel, "MODEL_NAME")
	set(&cfg.Database.URL, "DATABASE_URL")
	set(&cfg.Redis.URL, "REDIS_URL")
	set(&cfg.JobSearch.BaseURL, "HH_API_URL")
	set(&cfg.JobSearch.ClientID, "HH_CLIENT_ID")
	set(&cfg.JobSearch.ClientSecret, "HH_CLIENT_SECRET")
	set(&cfg.JobSearch.APIKey, "HH_API_KEY")
	set(&cfg.Bot.Token, "TELEGRAM_BOT_TOKEN")
	set(&cfg.Events.RabbitURL, "RABBITMQ_URL")
	set(&cfg.Log.Level, "LOG_LEVEL")
	set(&cfg.Security.EncryptionKey, "ENCRYPTION_KEY")
	if v := getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.HTTPPort = p
		}
	}
}

// HasAIKey reports whether any model provider is configured.
func (c *Config) HasAIKey() bool { return c.AI.OpenAIKey != "" || c.AI.GeminiKey != "" }

// validate skips the AI key check in dev mode; the agents then run on their fallbacks.
func (c *Config) validate() error {
	if !c.HasAIKey() && !c.Runtime.Dev {
		return errors.New("ai.openai_key or ai.gemini_key is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if k := c.Security.EncryptionKey; k != "" && len(k) != 32 {
		return errors.New("security.encryption_key must be 32 bytes")
	}
	return nil
}

func normalizeTTL(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
