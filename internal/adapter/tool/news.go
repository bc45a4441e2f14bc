package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"concierge/internal/domain"
	"concierge/internal/infra/tracer"
)

// News output formats.
const (
	NewsFormatCondensed = "condensed"
	NewsFormatRaw       = "raw"
)

const (
	defaultNewsCategory = "technology"
	defaultNewsCountry  = "us"
)

// newsCategories are the categories the headlines provider accepts.
var newsCategories = []string{
	"business", "entertainment", "general", "health", "science", "sports", "technology",
}

// Headlines is the outcome of a top-headlines fetch. Titles holds parsed
// article titles in provider order; Raw is the unmodified provider payload.
type Headlines struct {
	Titles []string
	Raw    json.RawMessage
}

// NewsBackend fetches top headlines for a category and country.
type NewsBackend interface {
	TopHeadlines(ctx context.Context, category, country string) (*Headlines, error)
}

// NewsTool reports top headlines via a pluggable NewsBackend. The output
// format is a configuration choice: condensed joins up to maxHeadlines
// titles into one line, raw passes the provider payload through.
type NewsTool struct {
	backend      NewsBackend
	format       string
	maxHeadlines int
	logger       *slog.Logger
}

// NewNewsTool creates a headlines lookup.
func NewNewsTool(backend NewsBackend, format string, maxHeadlines int, logger *slog.Logger) *NewsTool {
	if format == "" {
		format = NewsFormatCondensed
	}
	if maxHeadlines <= 0 {
		maxHeadlines = 3
	}
	return &NewsTool{
		backend:      backend,
		format:       format,
		maxHeadlines: maxHeadlines,
		logger:       logger,
	}
}

func (t *NewsTool) Name() string { return "get_news" }
func (t *NewsTool) Description() string {
	return "Get top news headlines for a given country and interest category"
}

func (t *NewsTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"category": {"type": "string", "description": "News category e.g. technology, business, science (default: technology)"},
				"country": {"type": "string", "description": "Two-letter country code e.g. us (default: us)"}
			}
		}`),
	}
}

type newsParams struct {
	Category string `json:"category,omitempty"`
	Country  string `json:"country,omitempty"`
}

func (t *NewsTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.get_news", t.logger, params,
		func(ctx context.Context, span trace.Span, p newsParams) (any, error) {
			if err := ValidateEnum("category", p.Category, newsCategories...); err != nil {
				return nil, err
			}
			if p.Category == "" {
				p.Category = defaultNewsCategory
			}
			if p.Country == "" {
				p.Country = defaultNewsCountry
			}

			span.SetAttributes(
				tracer.StringAttr("tool.category", p.Category),
				tracer.StringAttr("tool.country", p.Country),
			)

			headlines, err := t.backend.TopHeadlines(ctx, p.Category, p.Country)
			if err != nil {
				return nil, err
			}

			t.logger.Debug("news lookup completed",
				"category", p.Category, "country", p.Country, "titles", len(headlines.Titles))

			if t.format == NewsFormatRaw {
				return TextResult(string(headlines.Raw)), nil
			}
			return condenseHeadlines(headlines.Titles, t.maxHeadlines), nil
		},
	)
}

// condenseHeadlines joins up to max titles into one line. Fewer titles than
// max is not an error; all available headlines are included.
func condenseHeadlines(titles []string, max int) string {
	if len(titles) == 0 {
		return "No headlines available."
	}
	if len(titles) > max {
		titles = titles[:max]
	}
	return "Top Headlines: " + strings.Join(titles, "; ")
}
