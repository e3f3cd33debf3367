package discovery

import (
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/AgentLink/internal/domain/agent"
)

func TestKnownAgentsPutLookup(t *testing.T) {
	k := NewKnownAgents()

	if _, ok := k.Lookup("alpha"); ok {
		t.Fatal("expected miss on empty registry")
	}

	k.Put(agent.Card{Name: "alpha", URL: "http://alpha:8001"})
	card, ok := k.Lookup("alpha")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if card.URL != "http://alpha:8001" {
		t.Fatalf("unexpected card: %+v", card)
	}
	if k.Len() != 1 {
		t.Fatalf("expected 1 peer, got %d", k.Len())
	}
}

func TestKnownAgentsLastWriteWins(t *testing.T) {
	k := NewKnownAgents()
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	k.now = func() time.Time { return t0 }

	k.Put(agent.Card{Name: "alpha", URL: "http://old:8001", Version: "1.0"})

	t1 := t0.Add(time.Minute)
	k.now = func() time.Time { return t1 }
	k.Put(agent.Card{Name: "alpha", URL: "http://new:8001"})

	snap := k.Snapshot()
	p, ok := snap["alpha"]
	if !ok {
		t.Fatal("alpha missing from snapshot")
	}
	if p.Card.URL != "http://new:8001" {
		t.Fatalf("expected replacement entry, got %+v", p.Card)
	}
	if p.Card.Version != "" {
		t.Fatal("entries must be replaced wholesale, not merged")
	}
	if !p.LastSeen.Equal(t1) {
		t.Fatalf("expected LastSeen %v, got %v", t1, p.LastSeen)
	}
}

func TestKnownAgentsSnapshotIsCopy(t *testing.T) {
	k := NewKnownAgents()
	k.Put(agent.Card{Name: "alpha"})

	snap := k.Snapshot()
	delete(snap, "alpha")

	if _, ok := k.Lookup("alpha"); !ok {
		t.Fatal("mutating a snapshot must not affect the registry")
	}
}

func TestKnownAgentsConcurrentAccess(t *testing.T) {
	k := NewKnownAgents()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				k.Put(agent.Card{Name: "alpha", Version: "v"})
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				k.Lookup("alpha")
				k.Snapshot()
			}
		}()
	}
	wg.Wait()

	if k.Len() != 1 {
		t.Fatalf("expected 1 peer, got %d", k.Len())
	}
}
