// Package config provides configuration loading and validation for the CLI
// and the HTTP server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/trustcheck/internal/cache"
	"github.com/jonathan/trustcheck/internal/history"
	"github.com/jonathan/trustcheck/internal/llm"
	"github.com/jonathan/trustcheck/internal/scoring"
)

// Config is the engine configuration. It can be loaded from a JSON file and
// from the environment; all fields are optional.
type Config struct {
	// Evidence provider
	EvidenceProvider string `json:"evidence_provider,omitempty"` // perplexity (default), openai or gemini
	PerplexityAPIKey string `json:"perplexity_api_key,omitempty"`
	GeminiAPIKey     string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey     string `json:"openai_api_key,omitempty"`
	OpenAIBaseURL    string `json:"openai_base_url,omitempty"`

	// Independent analyses
	FactCheckAPIKey   string `json:"factcheck_api_key,omitempty"`
	PerspectiveAPIKey string `json:"perspective_api_key,omitempty"`
	ClassifyWithLLM   bool   `json:"classify_with_llm,omitempty"`

	// Storage
	HistoryBackend string `json:"history_backend,omitempty"` // memory, redis or postgres
	DatabaseURL    string `json:"database_url,omitempty"`
	RedisURL       string `json:"redis_url,omitempty"`
	CacheBackend   string `json:"cache_backend,omitempty"` // memory, valkey or none
	ValkeyAddress  string `json:"valkey_address,omitempty"`

	// Behaviour
	AuthorityTable  string `json:"authority_table,omitempty"` // Path to an authority table YAML file
	UseBrowser      bool   `json:"use_browser,omitempty"`     // Render client-side pages with a headless browser
	ClaimQuota      int    `json:"claim_quota,omitempty"`
	ProviderTimeout int    `json:"provider_timeout_seconds,omitempty"`
	AnalysisTimeout int    `json:"analysis_timeout_seconds,omitempty"`

	// Scoring overrides individual scoring.Policy fields
	Scoring json.RawMessage `json:"scoring,omitempty"`

	// Admin authentication
	JWTSecret          string `json:"-"`
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty"`
	AdminPasswordHash  string `json:"-"`
	BcryptCost         int    `json:"bcrypt_cost,omitempty"`
	PasswordPepper     string `json:"-"`

	// Logging
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"` // text or json
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables through getenv.
// Pass os.Getenv in production.
func FromEnv(getenv func(string) string) Config {
	return Config{
		EvidenceProvider:   getenv("EVIDENCE_PROVIDER"),
		PerplexityAPIKey:   getenv("PERPLEXITY_API_KEY"),
		GeminiAPIKey:       getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:       getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      getenv("OPENAI_BASE_URL"),
		FactCheckAPIKey:    getenv("FACTCHECK_API_KEY"),
		PerspectiveAPIKey:  getenv("PERSPECTIVE_API_KEY"),
		ClassifyWithLLM:    envBool(getenv("CLASSIFY_WITH_LLM")),
		HistoryBackend:     getenv("HISTORY_BACKEND"),
		DatabaseURL:        getenv("DATABASE_URL"),
		RedisURL:           getenv("REDIS_URL"),
		CacheBackend:       getenv("CACHE_BACKEND"),
		ValkeyAddress:      getenv("VALKEY_ADDRESS"),
		AuthorityTable:     getenv("TRUST_AUTHORITY_TABLE"),
		UseBrowser:         envBool(getenv("USE_BROWSER")),
		ClaimQuota:         envInt(getenv("CLAIM_QUOTA")),
		ProviderTimeout:    envInt(getenv("PROVIDER_TIMEOUT_SECONDS")),
		AnalysisTimeout:    envInt(getenv("ANALYSIS_TIMEOUT_SECONDS")),
		JWTSecret:          getenv("JWT_SECRET"),
		JWTExpirationHours: envInt(getenv("JWT_EXPIRATION_HOURS")),
		AdminPasswordHash:  getenv("ADMIN_PASSWORD_HASH"),
		BcryptCost:         envInt(getenv("BCRYPT_COST")),
		PasswordPepper:     getenv("PASSWORD_PEPPER"),
		LogLevel:           getenv("LOG_LEVEL"),
		LogFormat:          getenv("LOG_FORMAT"),
	}
}

// Validate checks that the configuration has valid values.
// Missing API keys are not errors: the matching stage degrades instead.
func (c *Config) Validate() error {
	switch llm.Provider(strings.ToLower(c.EvidenceProvider)) {
	case "", llm.ProviderGemini, llm.ProviderOpenAI, llm.ProviderPerplexity:
	default:
		return fmt.Errorf("config error: unknown evidence_provider %q", c.EvidenceProvider)
	}

	backend, err := history.ParseBackend(c.HistoryBackend)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if backend == history.BackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("config error: history_backend postgres requires database_url")
	}
	if backend == history.BackendRedis && c.RedisURL == "" {
		return fmt.Errorf("config error: history_backend redis requires redis_url")
	}

	cacheBackend, err := cache.ParseBackend(c.CacheBackend)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if cacheBackend == cache.BackendValkey && c.ValkeyAddress == "" {
		return fmt.Errorf("config error: cache_backend valkey requires valkey_address")
	}

	// Validate numeric ranges
	if c.ClaimQuota < 0 {
		return fmt.Errorf("config error: 'claim_quota' must be non-negative")
	}
	if c.ProviderTimeout < 0 || c.AnalysisTimeout < 0 {
		return fmt.Errorf("config error: timeouts must be non-negative")
	}

	if c.AuthorityTable != "" {
		if _, err := os.Stat(c.AuthorityTable); os.IsNotExist(err) {
			return fmt.Errorf("config error: authority table not found: %s", c.AuthorityTable)
		}
	}

	if _, err := c.ScoringPolicy(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer a config file over the environment.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString(&result.EvidenceProvider, defaults.EvidenceProvider)
	mergeString(&result.PerplexityAPIKey, defaults.PerplexityAPIKey)
	mergeString(&result.GeminiAPIKey, defaults.GeminiAPIKey)
	mergeString(&result.OpenAIAPIKey, defaults.OpenAIAPIKey)
	mergeString(&result.OpenAIBaseURL, defaults.OpenAIBaseURL)
	mergeString(&result.FactCheckAPIKey, defaults.FactCheckAPIKey)
	mergeString(&result.PerspectiveAPIKey, defaults.PerspectiveAPIKey)
	mergeString(&result.HistoryBackend, defaults.HistoryBackend)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.RedisURL, defaults.RedisURL)
	mergeString(&result.CacheBackend, defaults.CacheBackend)
	mergeString(&result.ValkeyAddress, defaults.ValkeyAddress)
	mergeString(&result.AuthorityTable, defaults.AuthorityTable)
	mergeString(&result.JWTSecret, defaults.JWTSecret)
	mergeString(&result.AdminPasswordHash, defaults.AdminPasswordHash)
	mergeString(&result.PasswordPepper, defaults.PasswordPepper)
	mergeString(&result.LogLevel, defaults.LogLevel)
	mergeString(&result.LogFormat, defaults.LogFormat)

	// Int fields: use default if zero
	mergeInt(&result.ClaimQuota, defaults.ClaimQuota)
	mergeInt(&result.ProviderTimeout, defaults.ProviderTimeout)
	mergeInt(&result.AnalysisTimeout, defaults.AnalysisTimeout)
	mergeInt(&result.JWTExpirationHours, defaults.JWTExpirationHours)
	mergeInt(&result.BcryptCost, defaults.BcryptCost)

	// Bool fields: true on either side wins
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.ClassifyWithLLM = result.ClassifyWithLLM || defaults.ClassifyWithLLM

	if len(result.Scoring) == 0 {
		result.Scoring = defaults.Scoring
	}

	return result
}

// ScoringPolicy returns the default scoring policy with the configured
// overrides applied.
func (c *Config) ScoringPolicy() (scoring.Policy, error) {
	policy := scoring.DefaultPolicy()
	if len(c.Scoring) > 0 {
		if err := json.Unmarshal(c.Scoring, &policy); err != nil {
			return policy, fmt.Errorf("invalid scoring overrides: %w", err)
		}
	}
	if err := policy.Validate(); err != nil {
		return policy, err
	}
	return policy, nil
}

// LLMProvider returns the configured evidence provider, defaulting to
// Perplexity, whose answers carry search citations.
func (c *Config) LLMProvider() llm.Provider {
	if c.EvidenceProvider == "" {
		return llm.ProviderPerplexity
	}
	return llm.Provider(strings.ToLower(c.EvidenceProvider))
}

// LLMAPIKey returns the API key for the configured evidence provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider() {
	case llm.ProviderGemini:
		return c.GeminiAPIKey
	case llm.ProviderPerplexity:
		return c.PerplexityAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

// ProviderTimeoutDuration returns the per-call evidence timeout, zero for the default.
func (c *Config) ProviderTimeoutDuration() time.Duration {
	return time.Duration(c.ProviderTimeout) * time.Second
}

// AnalysisTimeoutDuration returns the per-branch analysis timeout, zero for the default.
func (c *Config) AnalysisTimeoutDuration() time.Duration {
	return time.Duration(c.AnalysisTimeout) * time.Second
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func envInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func envBool(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}
