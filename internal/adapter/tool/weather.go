package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"concierge/internal/domain"
	"concierge/internal/infra/tracer"
)

// GeoLocation is a resolved place from the geocoding call.
type GeoLocation struct {
	Lat     float64
	Lon     float64
	Name    string
	Country string
	State   string
}

// CurrentConditions is the observation returned by the weather call.
// Temperature values are already in the requested unit system.
type CurrentConditions struct {
	Temp        float64
	FeelsLike   float64
	Description string
	Humidity    int
	WindSpeed   float64
}

// WeatherBackend resolves a location and fetches current conditions.
// Geocode returns (nil, nil) when the location yields no match.
type WeatherBackend interface {
	Geocode(ctx context.Context, location string) (*GeoLocation, error)
	Current(ctx context.Context, lat, lon float64, units string) (*CurrentConditions, error)
}

// WeatherTool reports current weather for a location via a pluggable
// WeatherBackend. One attempt per invocation, no retry.
type WeatherTool struct {
	backend WeatherBackend
	units   string
	logger  *slog.Logger
}

// NewWeatherTool creates a weather lookup with the given unit system
// ("imperial" or "metric").
func NewWeatherTool(backend WeatherBackend, units string, logger *slog.Logger) *WeatherTool {
	if units == "" {
		units = "metric"
	}
	return &WeatherTool{
		backend: backend,
		units:   units,
		logger:  logger,
	}
}

func (t *WeatherTool) Name() string        { return "get_weather" }
func (t *WeatherTool) Description() string { return "Get the current weather in a given location" }

func (t *WeatherTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"location": {"type": "string", "description": "The city and state to get weather for e.g. San Francisco, CA"}
			},
			"required": ["location"]
		}`),
	}
}

type weatherParams struct {
	Location string `json:"location"`
}

func (t *WeatherTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.get_weather", t.logger, params,
		func(ctx context.Context, span trace.Span, p weatherParams) (any, error) {
			if err := RequireField("location", strings.TrimSpace(p.Location)); err != nil {
				return nil, err
			}

			span.SetAttributes(tracer.StringAttr("tool.location", p.Location))

			loc, err := t.backend.Geocode(ctx, p.Location)
			if err != nil {
				return nil, fmt.Errorf("geocoding %q: %w", p.Location, err)
			}
			if loc == nil {
				// No match: the conditions call is never issued.
				return ErrResult("no coordinates found for %q", p.Location)
			}

			cond, err := t.backend.Current(ctx, loc.Lat, loc.Lon, t.units)
			if err != nil {
				return nil, fmt.Errorf("could not retrieve weather for %q: %w", p.Location, err)
			}

			t.logger.Debug("weather lookup completed",
				"location", p.Location, "resolved", loc.Name, "units", t.units)
			return formatWeather(loc, cond, t.units), nil
		},
	)
}

// formatWeather composes the human-readable summary inserted into the
// transcript. Imperial gets °F/mph markers, everything else °C and m/s.
func formatWeather(loc *GeoLocation, cond *CurrentConditions, units string) string {
	tempUnit := "°C"
	windUnit := "m/s"
	if units == "imperial" {
		tempUnit = "°F"
		windUnit = "mph"
	}

	return fmt.Sprintf(
		"Weather in %s, %s: Temperature: %.1f%s, Feels like: %.1f%s. Conditions: %s. Humidity: %d%%. Wind Speed: %.1f %s.",
		loc.Name, loc.Country,
		cond.Temp, tempUnit,
		cond.FeelsLike, tempUnit,
		cond.Description,
		cond.Humidity,
		cond.WindSpeed, windUnit,
	)
}
