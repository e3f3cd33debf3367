package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/AgentLink/internal/logger"
)

func TestRequestIDGenerated(t *testing.T) {
	var ctxID string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctxID = logger.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if ctxID == "" {
		t.Fatal("expected generated request ID in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != ctxID {
		t.Fatalf("response header %q should match context ID %q", got, ctxID)
	}
	if len(ctxID) != 32 {
		t.Fatalf("expected 32-char hex ID, got %q", ctxID)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	var ctxID string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctxID = logger.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if ctxID != "client-supplied" {
		t.Fatalf("expected client ID preserved, got %q", ctxID)
	}
}
