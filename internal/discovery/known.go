package discovery

import (
	"sync"
	"time"

	"github.com/Strob0t/AgentLink/internal/domain/agent"
)

// Peer is one known agent: its most recently discovered card and when it
// was last seen. Entries are soft: a stale peer stays listed until the
// next sweep overwrites it.
type Peer struct {
	Card     agent.Card
	LastSeen time.Time
}

// KnownAgents is the registry of discovered peers. Entries are replaced
// wholesale (last-write-wins, no merge), so concurrent readers observe
// either the old or the new entry, never a mix.
type KnownAgents struct {
	mu    sync.RWMutex
	peers map[string]Peer
	now   func() time.Time // for testing
}

// NewKnownAgents creates an empty known-agents registry.
func NewKnownAgents() *KnownAgents {
	return &KnownAgents{
		peers: make(map[string]Peer),
		now:   time.Now,
	}
}

// Put records the given card under its agent name, overwriting any
// previous entry.
func (k *KnownAgents) Put(card agent.Card) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.peers[card.Name] = Peer{Card: card, LastSeen: k.now().UTC()}
}

// Lookup returns the card for the named agent. ok=false means "no known
// route": callers must degrade, not block waiting for discovery.
func (k *KnownAgents) Lookup(name string) (agent.Card, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	p, ok := k.peers[name]
	return p.Card, ok
}

// Snapshot returns a copy of all known peers keyed by agent name.
func (k *KnownAgents) Snapshot() map[string]Peer {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make(map[string]Peer, len(k.peers))
	for name, p := range k.peers {
		out[name] = p
	}
	return out
}

// Len returns the number of known peers.
func (k *KnownAgents) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.peers)
}
