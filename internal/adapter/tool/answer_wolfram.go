package tool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"concierge/internal/infra/config"
)

const maxAnswerBodySize = 256 * 1024 // 256KB

// WolframBackend implements AnswerBackend against the Wolfram|Alpha LLM API,
// which takes a free-text query and returns a plain-text answer.
type WolframBackend struct {
	client  *http.Client
	appID   string
	baseURL string
	logger  *slog.Logger
}

// NewWolframBackend creates an answer backend from config.
func NewWolframBackend(cfg config.AnswerConfig, logger *slog.Logger) *WolframBackend {
	return &WolframBackend{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		appID:   cfg.AppID,
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

func (b *WolframBackend) Name() string { return "wolfram" }

// Query submits the question. The provider answers HTTP 501 when it cannot
// interpret the input; that and an empty body map to ("", nil).
func (b *WolframBackend) Query(ctx context.Context, query string, maxChars int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("input", query)
	q.Set("appid", b.appID)
	q.Set("maxchars", strconv.Itoa(maxChars))
	req.URL.RawQuery = q.Encode()

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("answer request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerBodySize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotImplemented {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("answer API failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	answer := strings.TrimSpace(string(body))
	b.logger.Debug("wolfram query completed", "query", query, "chars", len(answer))
	return answer, nil
}

var _ AnswerBackend = (*WolframBackend)(nil)
