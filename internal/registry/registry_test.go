package registry

import (
	"context"
	"testing"

	"github.com/Strob0t/AgentLink/internal/config"
)

func testAgentConfig() config.Agent {
	return config.Agent{
		Name:        "Alpha",
		Description: "test agent",
		Version:     "0.1.0",
		URL:         "http://localhost:8001",
		Capabilities: []config.Capability{
			{Name: "ping", Description: "liveness check"},
			{ID: "echo-1", Name: "echo"},
		},
	}
}

func echoHandler(_ context.Context, query string) (string, error) {
	return query, nil
}

func TestNewBuildsCard(t *testing.T) {
	r, err := New(testAgentConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	card := r.Card()
	if card.Name != "Alpha" {
		t.Errorf("expected name Alpha, got %s", card.Name)
	}
	if len(card.Capabilities) != 2 {
		t.Fatalf("expected 2 capabilities, got %d", len(card.Capabilities))
	}
	// Capability ID falls back to the name when unset.
	if card.Capabilities[0].ID != "ping" {
		t.Errorf("expected id ping, got %s", card.Capabilities[0].ID)
	}
	if card.Capabilities[1].ID != "echo-1" {
		t.Errorf("expected id echo-1, got %s", card.Capabilities[1].ID)
	}
	if card.ProtocolVersion == "" {
		t.Error("expected protocol version to be set")
	}
}

func TestNewRejectsInvalidCard(t *testing.T) {
	cfg := testAgentConfig()
	cfg.Name = ""
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for missing name")
	}

	cfg = testAgentConfig()
	cfg.Capabilities = append(cfg.Capabilities, config.Capability{Name: "ping"})
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for duplicate capability")
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r, err := New(testAgentConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := r.Register("echo", echoHandler); err != nil {
		t.Fatalf("Register: %v", err)
	}

	h, ok := r.Handler("echo")
	if !ok {
		t.Fatal("expected echo handler")
	}
	out, err := h(context.Background(), "hello")
	if err != nil || out != "hello" {
		t.Fatalf("handler returned (%q, %v)", out, err)
	}

	if _, ok := r.Handler("absent"); ok {
		t.Fatal("expected no handler for absent capability")
	}
}

func TestRegisterRejectsUnadvertised(t *testing.T) {
	r, err := New(testAgentConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Register("not-in-card", echoHandler); err == nil {
		t.Fatal("expected error for unadvertised capability")
	}
	if err := r.Register("ping", nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r, err := New(testAgentConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Register("ping", echoHandler); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("ping", echoHandler); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

func TestDefaultCapability(t *testing.T) {
	r, err := New(testAgentConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := r.DefaultCapability(); got != "ping" {
		t.Errorf("expected default capability ping, got %s", got)
	}
}
