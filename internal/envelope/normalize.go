// Package envelope normalizes heterogeneous inbound message envelopes into
// the canonical Message. Extraction runs an ordered list of typed parsers;
// the first one yielding non-empty text wins, so new legacy shapes can be
// supported by appending a parser without touching callers.
package envelope

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/AgentLink/internal/domain"
	"github.com/Strob0t/AgentLink/internal/domain/agent"
)

// rawEnvelope covers the superset of fields the known wire shapes use.
type rawEnvelope struct {
	MessageID string            `json:"messageId"`
	Role      string            `json:"role"`
	Text      string            `json:"text"`
	Parts     []json.RawMessage `json:"parts"`
}

// parser extracts text from a decoded envelope. ok is false when the shape
// does not match or yields empty text.
type parser func(env *rawEnvelope) (text string, ok bool)

// parsers is the fixed priority order of supported shapes.
var parsers = []parser{
	parseDirectText,
	parseTextParts,
	parseWrappedParts,
	parseDataParts,
}

// Normalize builds a canonical Message from a raw inbound envelope. It
// either returns a complete Message with non-empty text or a ParsingError;
// it never partially normalizes.
func Normalize(raw json.RawMessage) (agent.Message, error) {
	if len(raw) == 0 {
		return agent.Message{}, &domain.ParsingError{Reason: "empty envelope"}
	}

	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return agent.Message{}, &domain.ParsingError{Reason: "malformed JSON: " + err.Error()}
	}

	for _, p := range parsers {
		text, ok := p(&env)
		if !ok {
			continue
		}
		return agent.Message{
			MessageID: messageID(env.MessageID),
			Role:      role(env.Role),
			Text:      text,
			Timestamp: time.Now().UTC(),
		}, nil
	}

	return agent.Message{}, &domain.ParsingError{Reason: "no text content in any known shape"}
}

// parseDirectText handles envelopes carrying a top-level text field.
func parseDirectText(env *rawEnvelope) (string, bool) {
	return env.Text, env.Text != ""
}

// parseTextParts handles the part structure {"parts":[{"text":...}]}.
func parseTextParts(env *rawEnvelope) (string, bool) {
	for _, part := range env.Parts {
		var p struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(part, &p); err == nil && p.Text != "" {
			return p.Text, true
		}
	}
	return "", false
}

// parseWrappedParts handles SDK-style wrapped parts where the payload sits
// one level down: {"parts":[{"root":{"text":...}}]}.
func parseWrappedParts(env *rawEnvelope) (string, bool) {
	for _, part := range env.Parts {
		var p struct {
			Root struct {
				Text string `json:"text"`
			} `json:"root"`
		}
		if err := json.Unmarshal(part, &p); err == nil && p.Root.Text != "" {
			return p.Root.Text, true
		}
	}
	return "", false
}

// parseDataParts handles structured data parts carrying a query field:
// {"parts":[{"data":{"query":...}}]}.
func parseDataParts(env *rawEnvelope) (string, bool) {
	for _, part := range env.Parts {
		var p struct {
			Data struct {
				Query string `json:"query"`
			} `json:"data"`
		}
		if err := json.Unmarshal(part, &p); err == nil && p.Data.Query != "" {
			return p.Data.Query, true
		}
	}
	return "", false
}

func messageID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func role(r string) agent.Role {
	if agent.Role(r) == agent.RoleAgent {
		return agent.RoleAgent
	}
	return agent.RoleUser
}
