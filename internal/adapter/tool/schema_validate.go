package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"concierge/internal/domain"
)

// schemaGuard rejects arguments that do not satisfy the tool's advertised
// JSON Schema before the wrapped tool sees them, so the schema sent to the
// completion service and the arguments accepted here cannot drift apart.
type schemaGuard struct {
	inner  domain.Tool
	schema *jsonschema.Schema
}

// WithSchemaValidation wraps t so Execute checks incoming arguments against
// t's parameter schema. A tool without a schema is returned as-is. An error
// means the schema itself does not compile.
func WithSchemaValidation(t domain.Tool) (domain.Tool, error) {
	raw := t.Schema().Parameters
	if len(raw) == 0 || string(raw) == "null" {
		return t, nil
	}

	compiled, err := jsonschema.CompileString(t.Name()+".schema.json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %q: %w", t.Name(), err)
	}
	return &schemaGuard{inner: t, schema: compiled}, nil
}

func (g *schemaGuard) Name() string              { return g.inner.Name() }
func (g *schemaGuard) Description() string       { return g.inner.Description() }
func (g *schemaGuard) Schema() domain.ToolSchema { return g.inner.Schema() }

func (g *schemaGuard) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	var decoded interface{}
	if err := json.Unmarshal(params, &decoded); err != nil {
		return &domain.ToolResult{
			IsError: true,
			Content: fmt.Sprintf("invalid JSON: %v", err),
		}, nil
	}

	if err := g.schema.Validate(decoded); err != nil {
		return &domain.ToolResult{
			IsError: true,
			Content: fmt.Sprintf("schema validation failed: %v", err),
		}, nil
	}

	return g.inner.Execute(ctx, params)
}
