package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"concierge/internal/domain"
	"concierge/internal/infra/config"
)

const maxWeatherBodySize = 256 * 1024 // 256KB

// openWeatherGeoResult models one entry of the geocoding response.
type openWeatherGeoResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

// openWeatherCurrent models the relevant portion of the current-conditions
// response.
type openWeatherCurrent struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// OpenWeatherBackend implements WeatherBackend against an
// OpenWeatherMap-compatible API (geo/1.0/direct + data/2.5/weather).
type OpenWeatherBackend struct {
	client     *http.Client
	apiKey     string
	geocodeURL string
	weatherURL string
	logger     *slog.Logger
}

// NewOpenWeatherBackend creates a weather backend from config.
func NewOpenWeatherBackend(cfg config.WeatherConfig, logger *slog.Logger) *OpenWeatherBackend {
	return &OpenWeatherBackend{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiKey:     cfg.APIKey,
		geocodeURL: cfg.GeocodeURL,
		weatherURL: cfg.WeatherURL,
		logger:     logger,
	}
}

func (b *OpenWeatherBackend) Name() string { return "openweathermap" }

// Geocode resolves a location name to coordinates. The call is limited to
// one result; an empty result set returns (nil, nil).
func (b *OpenWeatherBackend) Geocode(ctx context.Context, location string) (*GeoLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.geocodeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("q", location)
	q.Set("limit", "1")
	q.Set("appid", b.apiKey)
	req.URL.RawQuery = q.Encode()

	body, err := b.doGet(req)
	if err != nil {
		return nil, domain.WrapOp("openweather.geocode", err)
	}

	var results []openWeatherGeoResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("parse geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	first := results[0]
	return &GeoLocation{
		Lat:     first.Lat,
		Lon:     first.Lon,
		Name:    first.Name,
		Country: first.Country,
		State:   first.State,
	}, nil
}

// Current fetches current conditions for the given coordinates. The units
// parameter is passed through so the provider returns converted values.
func (b *OpenWeatherBackend) Current(ctx context.Context, lat, lon float64, units string) (*CurrentConditions, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.weatherURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", b.apiKey)
	q.Set("units", units)
	req.URL.RawQuery = q.Encode()

	body, err := b.doGet(req)
	if err != nil {
		return nil, domain.WrapOp("openweather.current", err)
	}

	var data openWeatherCurrent
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parse weather response: %w", err)
	}

	cond := &CurrentConditions{
		Temp:      data.Main.Temp,
		FeelsLike: data.Main.FeelsLike,
		Humidity:  data.Main.Humidity,
		WindSpeed: data.Wind.Speed,
	}
	if len(data.Weather) > 0 {
		cond.Description = data.Weather[0].Description
	}

	b.logger.Debug("weather fetch completed", "lat", lat, "lon", lon, "units", units)
	return cond, nil
}

func (b *OpenWeatherBackend) doGet(req *http.Request) ([]byte, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWeatherBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API failed (HTTP %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

var _ WeatherBackend = (*OpenWeatherBackend)(nil)
