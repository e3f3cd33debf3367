// Package registry holds this agent's own advertised card and the table
// associating each advertised capability with its handler function.
package registry

import (
	"context"
	"fmt"

	"github.com/Strob0t/AgentLink/internal/a2a"
	"github.com/Strob0t/AgentLink/internal/config"
	"github.com/Strob0t/AgentLink/internal/domain/agent"
)

// Handler executes one capability against a normalized query and returns
// the result text. Handlers may call other agents through the comms client;
// errors are converted by the scheduler, never propagated as panics.
type Handler func(ctx context.Context, query string) (string, error)

// Registry serves this agent's card read-only and resolves capability
// names to handlers. All registration happens before the agent starts
// serving; afterwards the registry is never mutated, so reads need no
// locking.
type Registry struct {
	card     agent.Card
	handlers map[string]Handler
}

// New builds the registry from static configuration. The card is validated
// once here; an invalid card is a fatal startup error.
func New(cfg config.Agent) (*Registry, error) {
	caps := make([]agent.Capability, 0, len(cfg.Capabilities))
	for _, c := range cfg.Capabilities {
		id := c.ID
		if id == "" {
			id = c.Name
		}
		caps = append(caps, agent.Capability{
			ID:          id,
			Name:        c.Name,
			Description: c.Description,
			Tags:        c.Tags,
			Examples:    c.Examples,
		})
	}

	card := agent.Card{
		Name:            cfg.Name,
		Description:     cfg.Description,
		Version:         cfg.Version,
		URL:             cfg.URL,
		Capabilities:    caps,
		ProtocolVersion: a2a.ProtocolVersion,
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("agent card: %w", err)
	}

	return &Registry{
		card:     card,
		handlers: make(map[string]Handler),
	}, nil
}

// Card returns this agent's own card.
func (r *Registry) Card() agent.Card {
	return r.card
}

// Register associates a handler with a capability name. Registering the
// same name twice or a name the card does not advertise is a wiring bug
// and fails loudly at startup.
func (r *Registry) Register(name string, h Handler) error {
	if h == nil {
		return fmt.Errorf("capability %q: nil handler", name)
	}
	if !r.card.HasCapability(name) {
		return fmt.Errorf("capability %q not advertised in agent card", name)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("capability %q already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// Handler returns the handler registered for the named capability.
func (r *Registry) Handler(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// DefaultCapability returns the name of the first advertised capability.
// It is the target for plain text queries that do not address a specific
// capability.
func (r *Registry) DefaultCapability() string {
	if len(r.card.Capabilities) == 0 {
		return ""
	}
	return r.card.Capabilities[0].Name
}
