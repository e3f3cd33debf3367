// Package agent defines the AgentCard, Capability and Message entities
// shared across the AgentLink runtime.
package agent

import (
	"errors"
	"fmt"
	"time"
)

// Capability is a named, independently invocable unit of work an agent
// advertises. The association between a capability and its handler function
// lives in the registry and is never serialized to peers.
type Capability struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// Card is an agent's published descriptor: identity, network address and
// capability list. A card is immutable once published; a new card only
// appears when the owning agent re-registers.
type Card struct {
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	Version         string       `json:"version"`
	URL             string       `json:"url"`
	Capabilities    []Capability `json:"capabilities"`
	ProtocolVersion string       `json:"protocolVersion,omitempty"`
}

// Validate checks that a card is publishable.
func (c *Card) Validate() error {
	if c.Name == "" {
		return errors.New("agent name is required")
	}
	if c.URL == "" {
		return errors.New("agent url is required")
	}
	seen := make(map[string]struct{}, len(c.Capabilities))
	for _, cap := range c.Capabilities {
		if cap.Name == "" {
			return errors.New("capability name is required")
		}
		if _, dup := seen[cap.Name]; dup {
			return fmt.Errorf("duplicate capability %q", cap.Name)
		}
		seen[cap.Name] = struct{}{}
	}
	return nil
}

// HasCapability reports whether the card advertises the named capability.
func (c *Card) HasCapability(name string) bool {
	for _, cap := range c.Capabilities {
		if cap.Name == name {
			return true
		}
	}
	return false
}

// Role identifies the sender side of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is the canonical envelope exchanged between agents. It is
// constructed once by the normalizer (inbound) or the comms client
// (outbound) and immutable afterwards.
type Message struct {
	MessageID string    `json:"messageId"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
