package a2a

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestErrorImplementsError(t *testing.T) {
	var err error = NewTaskNotFoundError("t1")

	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		t.Fatal("expected *Error via errors.As")
	}
	if rpcErr.Code != CodeTaskNotFound {
		t.Fatalf("expected code %d, got %d", CodeTaskNotFound, rpcErr.Code)
	}
	if rpcErr.Error() == "" {
		t.Fatal("expected non-empty error string")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code int
		want int
	}{
		{CodeParseError, http.StatusBadRequest},
		{CodeInvalidRequest, http.StatusBadRequest},
		{CodeInvalidParams, http.StatusBadRequest},
		{CodeMethodNotFound, http.StatusNotFound},
		{CodeTaskNotFound, http.StatusNotFound},
		{CodeInternalError, http.StatusInternalServerError},
		{-32050, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%d) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestRequestKeepsParamsRaw(t *testing.T) {
	data := []byte(`{
		"jsonrpc": "2.0", "id": "abc", "method": "message/send",
		"params": {"message": {"text": "hi"}}
	}`)

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Method != MethodMessageSend {
		t.Fatalf("unexpected method %q", req.Method)
	}

	var params MessageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		t.Fatalf("params should stay decodable raw JSON: %v", err)
	}
	if len(params.Message) == 0 {
		t.Fatal("expected raw message payload")
	}
}

func TestResponseRoundTrip(t *testing.T) {
	resp := Response{
		JSONRPC: Version,
		ID:      1,
		Error:   NewMethodNotFoundError("tasks/cancel"),
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Error == nil || decoded.Error.Code != CodeMethodNotFound {
		t.Fatalf("expected method-not-found error, got %+v", decoded.Error)
	}
	if len(decoded.Result) != 0 {
		t.Fatal("error response must not carry a result")
	}
}
