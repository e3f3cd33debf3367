// Package domain provides shared domain-level error types for AgentLink.
//
// The taxonomy separates errors about a single peer (discovery,
// communication), which are recovered locally, from errors about the
// current request (parsing, handler), which are surfaced to the caller.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DiscoveryError reports a peer that could not be discovered. It is never
// fatal: the peer is omitted from the current discovery cycle.
type DiscoveryError struct {
	Endpoint string
	Err      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery %s: %v", e.Endpoint, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ParsingError reports an inbound envelope with no extractable text.
// It must be surfaced to the caller as an error response.
type ParsingError struct {
	Reason string
}

func (e *ParsingError) Error() string {
	return "parse envelope: " + e.Reason
}

// CommunicationError reports a failed or timed-out inter-agent call.
// Capability handlers must treat it as recoverable.
type CommunicationError struct {
	Target string
	Err    error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("communicate with %q: %v", e.Target, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }

// HandlerError reports a capability handler that returned an error or
// panicked. It is recorded on the task or returned to the sync caller,
// never allowed to crash the scheduler.
type HandlerError struct {
	Capability string
	Err        error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %q: %v", e.Capability, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
