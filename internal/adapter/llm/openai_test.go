package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"concierge/internal/domain"
	"concierge/internal/infra/config"
)

func newTestLogger() *slog.Logger {
	return slog.Default()
}

func TestOpenAIProviderChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth: %s", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content-type: %s", r.Header.Get("Content-Type"))
		}

		resp := openaiResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o-mini",
			Choices: []openaiChoice{
				{
					Index: 0,
					Message: openaiMessage{
						Role:    "assistant",
						Content: "Hello! How can I help?",
					},
					FinishReason: "stop",
				},
			},
			Usage: openaiUsage{
				PromptTokens:     10,
				CompletionTokens: 8,
				TotalTokens:      18,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(config.ProviderConfig{
		Name:    "test",
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
	}, newTestLogger())

	req := domain.ChatRequest{
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "Hello"},
		},
	}

	resp, err := provider.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.Message.Content != "Hello! How can I help?" {
		t.Errorf("Content = %q, want %q", resp.Message.Content, "Hello! How can I help?")
	}
	if resp.Usage.TotalTokens != 18 {
		t.Errorf("TotalTokens = %d, want 18", resp.Usage.TotalTokens)
	}
}

func TestOpenAIProviderChatWithToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openaiResponse{
			ID:    "chatcmpl-456",
			Model: "gpt-4o-mini",
			Choices: []openaiChoice{
				{
					Index: 0,
					Message: openaiMessage{
						Role: "assistant",
						ToolCalls: []openaiToolCall{
							{
								ID:   "call_1",
								Type: "function",
								Function: openaiToolCallFunction{
									Name:      "get_weather",
									Arguments: `{"location":"Albany, New York"}`,
								},
							},
						},
					},
					FinishReason: "tool_calls",
				},
			},
			Usage: openaiUsage{TotalTokens: 25},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(config.ProviderConfig{
		Name:    "test",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, newTestLogger())

	resp, err := provider.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "weather in Albany?"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.Message.ToolCalls))
	}
	if resp.Message.ToolCalls[0].Name != "get_weather" {
		t.Errorf("tool name = %q, want %q", resp.Message.ToolCalls[0].Name, "get_weather")
	}
}

func TestOpenAIProviderDefaultsModel(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &req)
		gotModel = req.Model
		json.NewEncoder(w).Encode(openaiResponse{Model: req.Model})
	}))
	defer server.Close()

	provider := NewOpenAIProvider(config.ProviderConfig{
		Name:    "test",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, newTestLogger())

	_, err := provider.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if gotModel != "gpt-4o-mini" {
		t.Errorf("model = %q, want configured default", gotModel)
	}
}

func TestOpenAIProviderAlwaysSendsTemperature(t *testing.T) {
	var raw map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &raw)
		json.NewEncoder(w).Encode(openaiResponse{})
	}))
	defer server.Close()

	provider := NewOpenAIProvider(config.ProviderConfig{
		Name:    "test",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, newTestLogger())

	_, err := provider.Chat(context.Background(), domain.ChatRequest{
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
		Temperature: 0,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	tempRaw, ok := raw["temperature"]
	if !ok {
		t.Fatal("temperature field missing from request body")
	}
	if string(tempRaw) != "0" {
		t.Errorf("temperature = %s, want 0", tempRaw)
	}
}

func TestOpenAIProviderErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limit", http.StatusTooManyRequests, domain.ErrRateLimit},
		{"unauthorized", http.StatusUnauthorized, domain.ErrAuthInvalid},
		{"forbidden", http.StatusForbidden, domain.ErrAuthInvalid},
		{"too large", http.StatusRequestEntityTooLarge, domain.ErrContextOverflow},
		{"server error", http.StatusInternalServerError, domain.ErrProviderFailure},
		{"bad gateway", http.StatusBadGateway, domain.ErrProviderFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"simulated"}`))
			}))
			defer server.Close()

			provider := NewOpenAIProvider(config.ProviderConfig{
				Name:    "test",
				BaseURL: server.URL,
				Model:   "gpt-4o-mini",
			}, newTestLogger())

			_, err := provider.Chat(context.Background(), domain.ChatRequest{
				Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestToOpenAIRequestToolResultMessage(t *testing.T) {
	req := domain.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []domain.Message{
			{
				Role:    domain.RoleTool,
				Content: "Weather in Albany, New York: Temperature: 22°C",
				Name:    "get_weather",
				ToolCalls: []domain.ToolCall{
					{ID: "call_1", Name: "get_weather"},
				},
			},
		},
	}

	oaiReq := toOpenAIRequest(req)
	if len(oaiReq.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(oaiReq.Messages))
	}
	msg := oaiReq.Messages[0]
	if msg.ToolCallID != "call_1" {
		t.Errorf("ToolCallID = %q, want %q", msg.ToolCallID, "call_1")
	}
	if len(msg.ToolCalls) != 0 {
		t.Errorf("tool result message should not carry tool_calls, got %d", len(msg.ToolCalls))
	}
}

func TestToOpenAIRequestAssistantToolCalls(t *testing.T) {
	req := domain.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []domain.Message{
			{
				Role: domain.RoleAssistant,
				ToolCalls: []domain.ToolCall{
					{ID: "call_1", Name: "get_news", Arguments: json.RawMessage(`{"category":"science"}`)},
				},
			},
		},
		Tools: []domain.ToolSchema{
			{Name: "get_news", Description: "headlines", Parameters: json.RawMessage(`{"type":"object"}`)},
		},
	}

	oaiReq := toOpenAIRequest(req)
	msg := oaiReq.Messages[0]
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(msg.ToolCalls))
	}
	if msg.ToolCalls[0].Function.Arguments != `{"category":"science"}` {
		t.Errorf("arguments = %q", msg.ToolCalls[0].Function.Arguments)
	}
	if len(oaiReq.Tools) != 1 || oaiReq.Tools[0].Type != "function" {
		t.Errorf("tools not converted: %+v", oaiReq.Tools)
	}
	if oaiReq.ToolChoice != "auto" {
		t.Errorf("ToolChoice = %q, want auto when tools are offered", oaiReq.ToolChoice)
	}
}

func TestToOpenAIRequestNoToolsOmitsToolChoice(t *testing.T) {
	oaiReq := toOpenAIRequest(domain.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	if oaiReq.ToolChoice != "" {
		t.Errorf("ToolChoice = %q, want empty without tools", oaiReq.ToolChoice)
	}
}
