package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"concierge/internal/domain"
	"concierge/internal/infra/tracer"
)

// LoopDeps holds injected dependencies for the conversation loop.
type LoopDeps struct {
	LLM       domain.LLMProvider
	Tools     domain.ToolExecutor
	Logger    *slog.Logger
	MaxTokens int // 0 = provider default
}

// Loop orchestrates one user turn: selection completion, sequential tool
// dispatch, synthesis completion. Tool selection and synthesis both run at
// temperature zero so identical transcripts reproduce the same decisions up
// to provider nondeterminism.
type Loop struct {
	deps LoopDeps
}

// NewLoop creates a conversation loop with the given dependencies.
func NewLoop(deps LoopDeps) *Loop {
	return &Loop{deps: deps}
}

// HandleMessage processes a single user message through the loop and returns
// the turn's final answer. Every failure path returns text: transport and
// service errors, malformed arguments, and unknown tool names all become
// user-visible strings rather than propagated errors. Messages appended
// before a failure stay in the session (no rollback).
func (l *Loop) HandleMessage(ctx context.Context, session *Session, userMsg string) string {
	ctx, span := tracer.StartSpan(ctx, "loop.handle_message",
		trace.WithAttributes(tracer.StringAttr("session.id", session.ID)),
	)
	defer span.End()

	session.AddMessage(domain.Message{
		Role:    domain.RoleUser,
		Content: userMsg,
	})

	// Selection: full transcript, tool schemas offered, temperature zero.
	resp, err := l.deps.LLM.Chat(ctx, domain.ChatRequest{
		Messages:    session.Messages(),
		Tools:       l.deps.Tools.Schemas(),
		MaxTokens:   l.deps.MaxTokens,
		Temperature: 0,
	})
	if err != nil {
		tracer.RecordError(span, err)
		l.deps.Logger.Error("selection request failed",
			"session", session.ID, "code", domain.ErrorCodeOf(err), "error", err)
		return fmt.Sprintf("Error processing request: %v", err)
	}

	session.AddMessage(resp.Message)

	// No tool calls: the content is the turn's final answer, exactly one
	// completion request made.
	if len(resp.Message.ToolCalls) == 0 {
		tracer.SetOK(span)
		return resp.Message.Content
	}

	// Dispatch sequentially in the order the service returned the calls.
	// One HTTP call in flight at a time, no parallel dispatch.
	for _, call := range resp.Message.ToolCalls {
		if errText := l.dispatchTool(ctx, session, call); errText != "" {
			// Abort-turn: the error is the user-visible response and no
			// synthesis request is issued.
			tracer.RecordError(span, fmt.Errorf("%s", errText))
			return errText
		}
	}

	// Synthesis: extended transcript, no tools offered.
	final, err := l.deps.LLM.Chat(ctx, domain.ChatRequest{
		Messages:    session.Messages(),
		MaxTokens:   l.deps.MaxTokens,
		Temperature: 0,
	})
	if err != nil {
		tracer.RecordError(span, err)
		l.deps.Logger.Error("synthesis request failed",
			"session", session.ID, "code", domain.ErrorCodeOf(err), "error", err)
		return fmt.Sprintf("Error processing request: %v", err)
	}

	session.AddMessage(final.Message)
	tracer.SetOK(span)
	return final.Message.Content
}

// dispatchTool parses, looks up, and executes one tool call, appending the
// result to the session. A non-empty return value is an abort-turn error
// string; the empty string means the call was dispatched (tool-level
// failures are embedded in the transcript as error-shaped results, they do
// not abort the turn).
func (l *Loop) dispatchTool(ctx context.Context, session *Session, call domain.ToolCall) string {
	ctx, span := tracer.StartSpan(ctx, "loop.dispatch_tool",
		trace.WithAttributes(tracer.StringAttr("tool.name", call.Name)),
	)
	defer span.End()

	if len(call.Arguments) > 0 && !json.Valid(call.Arguments) {
		err := domain.NewDomainError("Loop.dispatchTool", domain.ErrInvalidArguments, call.Name)
		tracer.RecordError(span, err)
		l.deps.Logger.Warn("malformed tool arguments",
			"tool", call.Name, "session", session.ID, "code", domain.ErrorCodeOf(err))
		return fmt.Sprintf("Error: malformed arguments for tool %q", call.Name)
	}

	tool, err := l.deps.Tools.Get(call.Name)
	if err != nil {
		tracer.RecordError(span, err)
		l.deps.Logger.Warn("unknown tool requested",
			"tool", call.Name, "session", session.ID, "code", domain.ErrorCodeOf(err))
		return fmt.Sprintf("Error: unknown tool %q", call.Name)
	}

	result, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		// Tools never propagate errors past Execute; treat a violation the
		// same as an error-shaped result.
		result = &domain.ToolResult{IsError: true, Content: err.Error()}
	}

	l.deps.Logger.Debug("tool dispatched",
		"tool", call.Name, "session", session.ID, "is_error", result.IsError)

	session.AddMessage(domain.Message{
		Role:    domain.RoleTool,
		Name:    call.Name,
		Content: result.Content,
		ToolCalls: []domain.ToolCall{{
			ID:   call.ID,
			Name: call.Name,
		}},
		Timestamp: time.Now(),
	})
	tracer.SetOK(span)
	return ""
}
