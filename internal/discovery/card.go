// Package discovery fetches and normalizes peer agent cards and maintains
// the cache of known agents. Peer failures are logged and skipped; nothing
// in this package is fatal to the caller.
package discovery

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Strob0t/AgentLink/internal/a2a"
	"github.com/Strob0t/AgentLink/internal/domain/agent"
)

// wireCard covers both card shapes seen in the wild: the canonical
// capabilities array and the SDK-era skills array.
type wireCard struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Version         string    `json:"version"`
	URL             string    `json:"url"`
	Capabilities    []wireCap `json:"capabilities"`
	Skills          []wireCap `json:"skills"`
	ProtocolVersion string    `json:"protocolVersion"`
}

// wireCap is the superset of capability/skill entry fields.
type wireCap struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples"`
}

// parseCard normalizes raw card JSON into the canonical Card. The
// capabilities array takes priority; the skills array is the legacy
// fallback. Duplicate capability names are collapsed, first occurrence
// wins. endpoint fills in the URL when the card does not carry one.
func parseCard(data []byte, endpoint string) (agent.Card, error) {
	var wc wireCard
	if err := json.Unmarshal(data, &wc); err != nil {
		return agent.Card{}, fmt.Errorf("malformed card JSON: %w", err)
	}
	if wc.Name == "" {
		return agent.Card{}, errors.New("card has no agent name")
	}

	entries := wc.Capabilities
	if len(entries) == 0 {
		entries = wc.Skills
	}

	caps := make([]agent.Capability, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = e.ID
		}
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		id := e.ID
		if id == "" {
			id = name
		}
		caps = append(caps, agent.Capability{
			ID:          id,
			Name:        name,
			Description: e.Description,
			Tags:        e.Tags,
			Examples:    e.Examples,
		})
	}

	url := wc.URL
	if url == "" {
		url = endpoint
	}

	proto := wc.ProtocolVersion
	if proto == "" {
		proto = a2a.ProtocolVersion
	}

	return agent.Card{
		Name:            wc.Name,
		Description:     wc.Description,
		Version:         wc.Version,
		URL:             url,
		Capabilities:    caps,
		ProtocolVersion: proto,
	}, nil
}
