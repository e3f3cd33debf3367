package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/AgentLink/internal/a2a"
	"github.com/Strob0t/AgentLink/internal/config"
	"github.com/Strob0t/AgentLink/internal/domain/agent"
	"github.com/Strob0t/AgentLink/internal/telemetry"
)

func cardServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != a2a.WellKnownPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, endpoints []string) *Client {
	t.Helper()
	cfg := config.Discovery{
		Endpoints:   endpoints,
		Timeout:     2 * time.Second,
		MaxParallel: 4,
	}
	return NewClient(cfg, NewKnownAgents(), telemetry.NewSpanManager())
}

func TestDiscoverAgentsSkipsFailures(t *testing.T) {
	alpha := cardServer(t, `{"name": "Alpha", "capabilities": [{"name": "ping"}]}`)
	beta := cardServer(t, `{"name": "Beta", "skills": [{"id": "ping"}]}`)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	endpoints := []string{alpha.URL, broken.URL, "http://127.0.0.1:1", beta.URL}
	c := testClient(t, endpoints)

	cards := c.DiscoverAgents(context.Background(), endpoints)
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	names := map[string]bool{}
	for _, card := range cards {
		names[card.Name] = true
		if !card.HasCapability("ping") {
			t.Fatalf("agent %s missing ping capability", card.Name)
		}
	}
	if !names["Alpha"] || !names["Beta"] {
		t.Fatalf("expected Alpha and Beta, got %v", names)
	}
}

func TestDiscoverAgentsMalformedCard(t *testing.T) {
	bad := cardServer(t, `{"capabilities": "nope"`)
	c := testClient(t, []string{bad.URL})

	cards := c.DiscoverAgents(context.Background(), []string{bad.URL})
	if len(cards) != 0 {
		t.Fatalf("expected no cards from malformed peer, got %d", len(cards))
	}
}

func TestRefreshPopulatesRegistry(t *testing.T) {
	alpha := cardServer(t, `{"name": "Alpha", "capabilities": [{"name": "ping"}]}`)
	c := testClient(t, []string{alpha.URL})

	cards := c.Refresh(context.Background())
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}

	card, ok := c.Lookup("Alpha")
	if !ok {
		t.Fatal("Alpha should be known after refresh")
	}
	if card.URL != alpha.URL {
		t.Fatalf("expected URL %q, got %q", alpha.URL, card.URL)
	}
	if len(c.Snapshot()) != 1 {
		t.Fatalf("expected 1 known peer, got %d", len(c.Snapshot()))
	}
}

func TestRefreshTwoPeersLookup(t *testing.T) {
	alpha := cardServer(t, `{"name": "Alpha", "capabilities": [{"name": "ping"}]}`)
	beta := cardServer(t, `{"name": "Beta", "capabilities": [{"name": "ping"}]}`)
	c := testClient(t, []string{alpha.URL, beta.URL})

	cards := c.Refresh(context.Background())
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}

	card, ok := c.Lookup("Beta")
	if !ok {
		t.Fatal("Beta should be known after refresh")
	}
	if card.URL != beta.URL || !card.HasCapability("ping") {
		t.Fatalf("unexpected Beta card: %+v", card)
	}
}

func TestRefreshOverwritesStaleEntry(t *testing.T) {
	alpha := cardServer(t, `{"name": "Alpha", "version": "2.0"}`)
	c := testClient(t, []string{alpha.URL})

	c.known.Put(agent.Card{Name: "Alpha", Version: "1.0"})
	c.Refresh(context.Background())

	card, _ := c.Lookup("Alpha")
	if card.Version != "2.0" {
		t.Fatalf("expected refreshed version 2.0, got %q", card.Version)
	}
}

func TestFetchCardTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	cfg := config.Discovery{Timeout: 50 * time.Millisecond, MaxParallel: 1}
	c := NewClient(cfg, NewKnownAgents(), telemetry.NewSpanManager())

	start := time.Now()
	_, err := c.fetchCard(context.Background(), slow.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("fetch should fail near the configured timeout, took %v", elapsed)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	alpha := cardServer(t, `{"name": "Alpha"}`)
	cfg := config.Discovery{
		Endpoints:   []string{alpha.URL},
		Timeout:     time.Second,
		Interval:    10 * time.Millisecond,
		MaxParallel: 1,
	}
	c := NewClient(cfg, NewKnownAgents(), telemetry.NewSpanManager())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	// Wait for the initial sweep, then cancel.
	deadline := time.Now().Add(2 * time.Second)
	for c.known.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
	if c.known.Len() != 1 {
		t.Fatal("expected Alpha discovered by initial sweep")
	}
}
