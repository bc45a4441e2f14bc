package usecase

import (
	"testing"
	"time"

	"concierge/internal/domain"
)

func TestNewSession(t *testing.T) {
	s := NewSession()
	if s.ID == "" {
		t.Error("session ID should be generated")
	}
	if len(s.ID) != 26 {
		t.Errorf("ID length = %d, want 26 (ULID)", len(s.ID))
	}
	if s.Len() != 0 {
		t.Errorf("new session should be empty, got %d messages", s.Len())
	}
}

func TestSessionIDsUnique(t *testing.T) {
	a := NewSession()
	time.Sleep(time.Millisecond)
	b := NewSession()
	if a.ID == b.ID {
		t.Error("session IDs should be unique")
	}
}

func TestAddMessageAppendOnly(t *testing.T) {
	s := NewSession()
	s.AddMessage(domain.Message{Role: domain.RoleSystem, Content: "You are an assistant."})
	s.AddMessage(domain.Message{Role: domain.RoleUser, Content: "hello"})

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != domain.RoleSystem || msgs[1].Role != domain.RoleUser {
		t.Errorf("order not preserved: %v, %v", msgs[0].Role, msgs[1].Role)
	}
	if msgs[0].Timestamp.IsZero() {
		t.Error("timestamp should be stamped on append")
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	s := NewSession()
	s.AddMessage(domain.Message{Role: domain.RoleUser, Content: "original"})

	msgs := s.Messages()
	msgs[0].Content = "mutated"

	if s.Messages()[0].Content != "original" {
		t.Error("Messages must return a copy, not the backing slice")
	}
}

func TestSessionGrowsAcrossTurns(t *testing.T) {
	// The transcript is not reset between turns; it grows monotonically.
	s := NewSession()
	for i := 0; i < 5; i++ {
		s.AddMessage(domain.Message{Role: domain.RoleUser, Content: "turn"})
		s.AddMessage(domain.Message{Role: domain.RoleAssistant, Content: "reply"})
	}
	if s.Len() != 10 {
		t.Errorf("len = %d, want 10", s.Len())
	}
}
