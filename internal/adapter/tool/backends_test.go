package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"concierge/internal/infra/config"
)

func TestOpenWeatherBackendGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Albany, New York" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "1" {
			t.Errorf("limit = %q, want 1", got)
		}
		if got := r.URL.Query().Get("appid"); got != "owm-key" {
			t.Errorf("appid = %q", got)
		}
		w.Write([]byte(`[{"name":"Albany","lat":42.65,"lon":-73.75,"country":"US","state":"New York"}]`))
	}))
	defer server.Close()

	backend := NewOpenWeatherBackend(config.WeatherConfig{
		APIKey:     "owm-key",
		GeocodeURL: server.URL,
	}, newTestLogger())

	loc, err := backend.Geocode(context.Background(), "Albany, New York")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if loc == nil {
		t.Fatal("expected a match")
	}
	if loc.Name != "Albany" || loc.Country != "US" {
		t.Errorf("loc = %+v", loc)
	}
	if loc.Lat != 42.65 || loc.Lon != -73.75 {
		t.Errorf("coords = %v, %v", loc.Lat, loc.Lon)
	}
}

func TestOpenWeatherBackendGeocodeNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	backend := NewOpenWeatherBackend(config.WeatherConfig{GeocodeURL: server.URL}, newTestLogger())

	loc, err := backend.Geocode(context.Background(), "Nowheresville")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if loc != nil {
		t.Errorf("expected nil for empty result set, got %+v", loc)
	}
}

func TestOpenWeatherBackendCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("units"); got != "imperial" {
			t.Errorf("units = %q", got)
		}
		if r.URL.Query().Get("lat") == "" || r.URL.Query().Get("lon") == "" {
			t.Error("missing coordinates")
		}
		w.Write([]byte(`{
			"weather": [{"description": "clear sky"}],
			"main": {"temp": 72.3, "feels_like": 70.1, "humidity": 40},
			"wind": {"speed": 5.5}
		}`))
	}))
	defer server.Close()

	backend := NewOpenWeatherBackend(config.WeatherConfig{WeatherURL: server.URL}, newTestLogger())

	cond, err := backend.Current(context.Background(), 42.65, -73.75, "imperial")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cond.Temp != 72.3 || cond.Description != "clear sky" || cond.Humidity != 40 {
		t.Errorf("cond = %+v", cond)
	}
}

func TestOpenWeatherBackendHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer server.Close()

	backend := NewOpenWeatherBackend(config.WeatherConfig{GeocodeURL: server.URL}, newTestLogger())

	_, err := backend.Geocode(context.Background(), "Albany")
	if err == nil {
		t.Fatal("expected error for HTTP 401")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry the status: %v", err)
	}
	if !strings.Contains(err.Error(), "openweather.geocode") {
		t.Errorf("error should carry the operation: %v", err)
	}
}

func TestNewsAPIBackendTopHeadlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("category") != "science" || q.Get("country") != "us" || q.Get("apiKey") != "news-key" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"status":"ok","totalResults":2,"articles":[{"title":"First"},{"title":"Second"}]}`))
	}))
	defer server.Close()

	backend := NewNewsAPIBackend(config.NewsConfig{
		APIKey:  "news-key",
		BaseURL: server.URL,
	}, newTestLogger())

	headlines, err := backend.TopHeadlines(context.Background(), "science", "us")
	if err != nil {
		t.Fatalf("TopHeadlines: %v", err)
	}
	if len(headlines.Titles) != 2 || headlines.Titles[0] != "First" {
		t.Errorf("titles = %v", headlines.Titles)
	}
	if !strings.Contains(string(headlines.Raw), `"totalResults":2`) {
		t.Errorf("raw payload not preserved: %s", headlines.Raw)
	}
}

func TestNewsAPIBackendHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"status":"error","code":"rateLimited"}`))
	}))
	defer server.Close()

	backend := NewNewsAPIBackend(config.NewsConfig{BaseURL: server.URL}, newTestLogger())

	_, err := backend.TopHeadlines(context.Background(), "technology", "us")
	if err == nil {
		t.Fatal("expected error for HTTP 429")
	}
}

func TestWolframBackendQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("input") != "2+2" || q.Get("appid") != "wolfram-id" || q.Get("maxchars") != "500" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte("4\n"))
	}))
	defer server.Close()

	backend := NewWolframBackend(config.AnswerConfig{
		AppID:   "wolfram-id",
		BaseURL: server.URL,
	}, newTestLogger())

	answer, err := backend.Query(context.Background(), "2+2", 500)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer != "4" {
		t.Errorf("answer = %q, want 4 (trimmed)", answer)
	}
}

func TestWolframBackendNoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
		w.Write([]byte("Wolfram|Alpha did not understand your input"))
	}))
	defer server.Close()

	backend := NewWolframBackend(config.AnswerConfig{BaseURL: server.URL}, newTestLogger())

	answer, err := backend.Query(context.Background(), "gibberish", 500)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer != "" {
		t.Errorf("answer = %q, want empty for uninterpretable query", answer)
	}
}

func TestWolframBackendHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Invalid appid"))
	}))
	defer server.Close()

	backend := NewWolframBackend(config.AnswerConfig{BaseURL: server.URL}, newTestLogger())

	_, err := backend.Query(context.Background(), "2+2", 500)
	if err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}
