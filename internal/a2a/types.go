package a2a

import (
	"encoding/json"

	"github.com/Strob0t/AgentLink/internal/domain/agent"
	"github.com/Strob0t/AgentLink/internal/domain/task"
)

// MessageSendParams carries the params of a message/send request. The
// message stays raw here: inbound envelopes arrive in several legacy
// shapes and are canonicalized by the envelope normalizer.
type MessageSendParams struct {
	Message json.RawMessage `json:"message"`
}

// TaskGetParams carries the params of a tasks/get request.
type TaskGetParams struct {
	ID string `json:"id"`
}

// SendResult is the result payload of message/send. Exactly one field is
// set: Message on the sync path, Task (an acknowledgement) on the async
// path.
type SendResult struct {
	Message *agent.Message `json:"message,omitempty"`
	Task    *task.Task     `json:"task,omitempty"`
}

// TaskResult is the result payload of tasks/get.
type TaskResult struct {
	Task task.Task `json:"task"`
}

// OutboundMessage is the canonical envelope the comms client sends to a
// peer: a single text part, matching the shape every known peer accepts.
type OutboundMessage struct {
	MessageID string         `json:"messageId"`
	Role      string         `json:"role"`
	Parts     []OutboundPart `json:"parts"`
}

// OutboundPart is one part of an outbound message.
type OutboundPart struct {
	Text string `json:"text"`
}
