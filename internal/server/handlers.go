package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/AgentLink/internal/a2a"
	"github.com/Strob0t/AgentLink/internal/domain"
	"github.com/Strob0t/AgentLink/internal/domain/agent"
	"github.com/Strob0t/AgentLink/internal/envelope"
	"github.com/Strob0t/AgentLink/internal/events"
	"github.com/Strob0t/AgentLink/internal/scheduler"
)

// maxBodyBytes bounds the JSON-RPC request body.
const maxBodyBytes = 1 << 20

// HandleAgentCard serves this agent's card for peer discovery.
func (h *Handlers) HandleAgentCard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Card())
}

// HandleHealth reports process liveness and the size of the known-agents
// registry.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"agent":       h.registry.Card().Name,
		"knownAgents": len(h.disco.Snapshot()),
	})
}

// HandleRPC is the JSON-RPC entry point. Params stay raw until the method
// is known, then each method decodes its own shape.
func (h *Handlers) HandleRPC(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req a2a.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPCError(w, nil, a2a.NewParseError(err.Error()))
		return
	}
	if req.JSONRPC != a2a.Version {
		writeRPCError(w, req.ID, a2a.NewInvalidRequestError("jsonrpc must be \"2.0\""))
		return
	}

	switch req.Method {
	case a2a.MethodMessageSend:
		h.handleMessageSend(w, r, &req)
	case a2a.MethodTasksGet:
		h.handleTasksGet(w, r, &req)
	default:
		writeRPCError(w, req.ID, a2a.NewMethodNotFoundError(req.Method))
	}
}

// handleMessageSend normalizes the inbound envelope and dispatches the
// query through the scheduler: sync queries answer inline, async queries
// answer with a pollable task acknowledgement.
func (h *Handlers) handleMessageSend(w http.ResponseWriter, r *http.Request, req *a2a.Request) {
	var params a2a.MessageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeRPCError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}

	msg, err := envelope.Normalize(params.Message)
	if err != nil {
		var perr *domain.ParsingError
		if errors.As(err, &perr) {
			writeRPCError(w, req.ID, a2a.NewInvalidParamsError(perr.Reason))
			return
		}
		writeRPCError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}

	capability := h.registry.DefaultCapability()
	handler, ok := h.registry.Handler(capability)
	if !ok {
		writeRPCError(w, req.ID, a2a.NewInternalError("no handler registered"))
		return
	}

	// Terminal query events come from the scheduler when the work actually
	// finishes; here only the arrival is recorded.
	h.emit(events.Event{Type: events.TypeQueryStart, Agent: h.registry.Card().Name})

	resp, tk, err := h.scheduler.Dispatch(r.Context(), capability, scheduler.Handler(handler), msg.Text)
	if err != nil {
		writeRPCError(w, req.ID, a2a.NewInternalError(err.Error()))
		return
	}

	if tk != nil {
		writeRPCResult(w, req.ID, a2a.SendResult{Task: tk})
		return
	}
	writeRPCResult(w, req.ID, a2a.SendResult{
		Message: &agent.Message{
			MessageID: uuid.NewString(),
			Role:      agent.RoleAgent,
			Text:      resp,
			Timestamp: time.Now().UTC(),
		},
	})
}

// handleTasksGet returns the current snapshot of a task.
func (h *Handlers) handleTasksGet(w http.ResponseWriter, r *http.Request, req *a2a.Request) {
	var params a2a.TaskGetParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeRPCError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}
	if params.ID == "" {
		writeRPCError(w, req.ID, a2a.NewInvalidParamsError("id is required"))
		return
	}

	tk, err := h.scheduler.GetTask(r.Context(), params.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeRPCError(w, req.ID, a2a.NewTaskNotFoundError(params.ID))
			return
		}
		writeRPCError(w, req.ID, a2a.NewInternalError(err.Error()))
		return
	}
	writeRPCResult(w, req.ID, a2a.TaskResult{Task: tk})
}

func (h *Handlers) emit(ev events.Event) {
	if h.emitter != nil {
		h.emitter.Emit(ev)
	}
}
