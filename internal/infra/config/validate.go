package config

import (
	"fmt"
	"strings"

	"concierge/internal/domain"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors  []string
	missing bool
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// Unwrap exposes domain.ErrMissingCredential when any recorded error is a
// missing credential, so callers can match the condition with errors.Is.
func (v *ValidationError) Unwrap() error {
	if v.missing {
		return domain.ErrMissingCredential
	}
	return nil
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// AddMissingCredential records a missing credential for a component, naming
// the environment variable that supplies it.
func (v *ValidationError) AddMissingCredential(field, envVar string) {
	v.missing = true
	v.Errors = append(v.Errors, fmt.Sprintf("%s is empty (set via %s)", field, envVar))
}

// Validate checks cfg for structural correctness and credential presence.
// Credentials are validated here, at startup, rather than on first use: an
// enabled lookup without its key fails fast with a named missing-credential
// condition.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateAgent(cfg, ve)
	validateLLM(cfg, ve)
	validateLookups(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateAgent(cfg *Config, ve *ValidationError) {
	if cfg.Agent.SystemPrompt == "" {
		ve.Add("agent.system_prompt must not be empty")
	}
	if cfg.Agent.Timeout <= 0 {
		ve.Add("agent.timeout must be > 0")
	}
	if cfg.Agent.MaxTokens < 0 {
		ve.Add("agent.max_tokens must be >= 0")
	}
}

func validateLLM(cfg *Config, ve *ValidationError) {
	p := cfg.LLM.Provider
	if p.Name == "" {
		ve.Add("llm.provider.name must not be empty")
	}
	if p.Model == "" {
		ve.Add("llm.provider.model must not be empty")
	}
	if p.APIKey == "" {
		ve.AddMissingCredential("llm.provider.api_key", "CONCIERGE_OPENAI_API_KEY")
	}
}

var validUnits = map[string]bool{
	"imperial": true,
	"metric":   true,
}

var validNewsFormats = map[string]bool{
	"condensed": true,
	"raw":       true,
}

func validateLookups(cfg *Config, ve *ValidationError) {
	w := cfg.Lookups.Weather
	if w.Enabled {
		if w.APIKey == "" {
			ve.AddMissingCredential("lookups.weather.api_key", "CONCIERGE_OPENWEATHERMAP_API_KEY")
		}
		if w.GeocodeURL == "" {
			ve.Add("lookups.weather.geocode_url must not be empty")
		}
		if w.WeatherURL == "" {
			ve.Add("lookups.weather.weather_url must not be empty")
		}
		if !validUnits[w.Units] {
			ve.Add("lookups.weather.units %q is invalid (want: imperial, metric)", w.Units)
		}
	}

	n := cfg.Lookups.News
	if n.Enabled {
		if n.APIKey == "" {
			ve.AddMissingCredential("lookups.news.api_key", "CONCIERGE_NEWSAPI_API_KEY")
		}
		if n.BaseURL == "" {
			ve.Add("lookups.news.base_url must not be empty")
		}
		if !validNewsFormats[n.Format] {
			ve.Add("lookups.news.format %q is invalid (want: condensed, raw)", n.Format)
		}
		if n.MaxHeadlines <= 0 {
			ve.Add("lookups.news.max_headlines must be > 0")
		}
	}

	a := cfg.Lookups.Answer
	if a.Enabled {
		if a.AppID == "" {
			ve.AddMissingCredential("lookups.answer.app_id", "CONCIERGE_WOLFRAM_APP_ID")
		}
		if a.BaseURL == "" {
			ve.Add("lookups.answer.base_url must not be empty")
		}
		if a.MaxChars <= 0 {
			ve.Add("lookups.answer.max_chars must be > 0")
		}
	}
}
