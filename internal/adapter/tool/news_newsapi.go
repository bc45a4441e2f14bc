package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"concierge/internal/infra/config"
)

const maxNewsBodySize = 512 * 1024 // 512KB

// newsAPIResponse models the relevant portion of the top-headlines response.
type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title string `json:"title"`
	} `json:"articles"`
	TotalResults int `json:"totalResults"`
}

// NewsAPIBackend implements NewsBackend against a NewsAPI-compatible
// top-headlines endpoint.
type NewsAPIBackend struct {
	client  *http.Client
	apiKey  string
	baseURL string
	logger  *slog.Logger
}

// NewNewsAPIBackend creates a news backend from config.
func NewNewsAPIBackend(cfg config.NewsConfig, logger *slog.Logger) *NewsAPIBackend {
	return &NewsAPIBackend{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

func (b *NewsAPIBackend) Name() string { return "newsapi" }

func (b *NewsAPIBackend) TopHeadlines(ctx context.Context, category, country string) (*Headlines, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("category", category)
	q.Set("country", country)
	q.Set("apiKey", b.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxNewsBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news API failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var parsed newsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse news response: %w", err)
	}

	titles := make([]string, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		titles = append(titles, a.Title)
	}

	b.logger.Debug("newsapi fetch completed",
		"category", category, "country", country, "articles", len(titles))

	return &Headlines{Titles: titles, Raw: json.RawMessage(body)}, nil
}

var _ NewsBackend = (*NewsAPIBackend)(nil)
