package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Strob0t/AgentLink/internal/a2a"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// writeRPCResult writes a successful JSON-RPC response.
func writeRPCResult(w http.ResponseWriter, id any, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		slog.Error("failed to encode RPC result", "error", err)
		writeRPCError(w, id, a2a.NewInternalError(nil))
		return
	}
	writeJSON(w, http.StatusOK, a2a.Response{
		JSONRPC: a2a.Version,
		ID:      id,
		Result:  data,
	})
}

// writeRPCError writes a JSON-RPC error response with the matching HTTP
// status.
func writeRPCError(w http.ResponseWriter, id any, rpcErr *a2a.Error) {
	writeJSON(w, a2a.HTTPStatus(rpcErr.Code), a2a.Response{
		JSONRPC: a2a.Version,
		ID:      id,
		Error:   rpcErr,
	})
}
