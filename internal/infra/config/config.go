package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"concierge/internal/domain"
)

// Config is the top-level application configuration.
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	LLM     LLMConfig     `yaml:"llm"`
	Lookups LookupsConfig `yaml:"lookups"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracer  TracerConfig  `yaml:"tracer"`
}

// AgentConfig holds conversation loop settings.
type AgentConfig struct {
	SystemPrompt string        `yaml:"system_prompt"`
	MaxTokens    int           `yaml:"max_tokens,omitempty"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LLMConfig holds completion service settings.
type LLMConfig struct {
	Provider       ProviderConfig       `yaml:"provider"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ProviderConfig holds settings for the chat-completion provider.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	Pool        PoolConfig    `yaml:"pool"`
}

// PoolConfig holds HTTP connection pool settings for the provider client.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// CircuitBreakerConfig holds circuit breaker settings for the provider.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// LookupsConfig holds settings for the three lookup tools.
type LookupsConfig struct {
	Weather WeatherConfig `yaml:"weather"`
	News    NewsConfig    `yaml:"news"`
	Answer  AnswerConfig  `yaml:"answer"`
}

// WeatherConfig holds OpenWeatherMap-compatible lookup settings.
type WeatherConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	GeocodeURL string `yaml:"geocode_url"`
	WeatherURL string `yaml:"weather_url"`
	Units      string `yaml:"units"` // "imperial" or "metric"
}

// NewsConfig holds top-headlines lookup settings.
type NewsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Format       string `yaml:"format"` // "condensed" or "raw"
	MaxHeadlines int    `yaml:"max_headlines"`
}

// AnswerConfig holds computational-query lookup settings.
type AnswerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	AppID    string `yaml:"app_id"`
	BaseURL  string `yaml:"base_url"`
	MaxChars int    `yaml:"max_chars"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Defaults returns a Config with sensible defaults. Lookup endpoints default
// to the public provider URLs; credentials come from config or environment.
func Defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			SystemPrompt: "You are an assistant used for three main functions: " +
				"current weather reporting for a given location, top news headlines " +
				"for a given category and country, and answering computational or " +
				"factual questions.",
			Timeout: 120 * time.Second,
		},
		LLM: LLMConfig{
			Provider: ProviderConfig{
				Name:  "openai",
				Model: "gpt-4o-mini",
			},
		},
		Lookups: LookupsConfig{
			Weather: WeatherConfig{
				Enabled:    true,
				GeocodeURL: "https://api.openweathermap.org/geo/1.0/direct",
				WeatherURL: "https://api.openweathermap.org/data/2.5/weather",
				Units:      "metric",
			},
			News: NewsConfig{
				Enabled:      true,
				BaseURL:      "https://newsapi.org/v2/top-headlines",
				Format:       "condensed",
				MaxHeadlines: 3,
			},
			Answer: AnswerConfig{
				Enabled:  true,
				BaseURL:  "https://www.wolframalpha.com/api/v1/llm-api",
				MaxChars: 500,
			},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file, applies env var overrides, decrypts secrets,
// and validates the result. A missing file is not an error; defaults plus
// environment are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfigLoad, path, err)
		}
	} else {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve path: %v", domain.ErrConfigLoad, err)
		}
		if err := validatePermissions(absPath); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigLoad, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfigLoad, path, err)
		}
	}

	ApplyEnvOverrides(cfg)

	passphrase := os.Getenv("CONCIERGE_CONFIG_KEY")
	if passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps CONCIERGE_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONCIERGE_OPENAI_API_KEY"); v != "" {
		cfg.LLM.Provider.APIKey = v
	}
	if v := os.Getenv("CONCIERGE_LLM_BASE_URL"); v != "" {
		cfg.LLM.Provider.BaseURL = v
	}
	if v := os.Getenv("CONCIERGE_LLM_MODEL"); v != "" {
		cfg.LLM.Provider.Model = v
	}
	if v := os.Getenv("CONCIERGE_OPENWEATHERMAP_API_KEY"); v != "" {
		cfg.Lookups.Weather.APIKey = v
	}
	if v := os.Getenv("CONCIERGE_WEATHER_UNITS"); v != "" {
		cfg.Lookups.Weather.Units = v
	}
	if v := os.Getenv("CONCIERGE_NEWSAPI_API_KEY"); v != "" {
		cfg.Lookups.News.APIKey = v
	}
	if v := os.Getenv("CONCIERGE_NEWS_FORMAT"); v != "" {
		cfg.Lookups.News.Format = v
	}
	if v := os.Getenv("CONCIERGE_WOLFRAM_APP_ID"); v != "" {
		cfg.Lookups.Answer.AppID = v
	}
	if v := os.Getenv("CONCIERGE_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("CONCIERGE_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("CONCIERGE_TRACER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tracer.Enabled = b
		}
	}
	if v := os.Getenv("CONCIERGE_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable).
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
