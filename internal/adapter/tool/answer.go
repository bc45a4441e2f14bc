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

// AnswerBackend submits a free-text query to a computational-knowledge
// endpoint. Query returns ("", nil) when the endpoint cannot interpret the
// query (no answer exists).
type AnswerBackend interface {
	Query(ctx context.Context, query string, maxChars int) (string, error)
}

// AnswerTool answers computational or factual questions via a pluggable
// AnswerBackend.
type AnswerTool struct {
	backend  AnswerBackend
	maxChars int
	logger   *slog.Logger
}

// NewAnswerTool creates a computational-query lookup. maxChars caps the
// answer length requested from the provider.
func NewAnswerTool(backend AnswerBackend, maxChars int, logger *slog.Logger) *AnswerTool {
	if maxChars <= 0 {
		maxChars = 500
	}
	return &AnswerTool{
		backend:  backend,
		maxChars: maxChars,
		logger:   logger,
	}
}

func (t *AnswerTool) Name() string { return "answer_query" }
func (t *AnswerTool) Description() string {
	return "Answer a computational or factual question using a knowledge engine"
}

func (t *AnswerTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "The question to answer e.g. What is the population of France?"}
			},
			"required": ["query"]
		}`),
	}
}

type answerParams struct {
	Query string `json:"query"`
}

func (t *AnswerTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.answer_query", t.logger, params,
		func(ctx context.Context, span trace.Span, p answerParams) (any, error) {
			if err := RequireField("query", strings.TrimSpace(p.Query)); err != nil {
				return nil, err
			}

			span.SetAttributes(tracer.StringAttr("tool.query", p.Query))

			answer, err := t.backend.Query(ctx, p.Query, t.maxChars)
			if err != nil {
				return nil, fmt.Errorf("could not process query %q: %w", p.Query, err)
			}
			if answer == "" {
				return TextResult(fmt.Sprintf("No result found for %q", p.Query)), nil
			}

			t.logger.Debug("answer lookup completed", "query", p.Query, "chars", len(answer))
			return fmt.Sprintf("Result for %q: %s", p.Query, answer), nil
		},
	)
}
