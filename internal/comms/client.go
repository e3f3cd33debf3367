// Package comms implements the outbound inter-agent communication client:
// route lookup against the known-agents registry, the JSON-RPC call to the
// peer, and polling for async task results.
package comms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Strob0t/AgentLink/internal/a2a"
	"github.com/Strob0t/AgentLink/internal/config"
	"github.com/Strob0t/AgentLink/internal/domain"
	"github.com/Strob0t/AgentLink/internal/domain/agent"
	"github.com/Strob0t/AgentLink/internal/envelope"
	"github.com/Strob0t/AgentLink/internal/events"
	"github.com/Strob0t/AgentLink/internal/logger"
	"github.com/Strob0t/AgentLink/internal/resilience"
	"github.com/Strob0t/AgentLink/internal/telemetry"
)

// maxResponseBytes bounds how much of a peer's response is read.
const maxResponseBytes = 4 << 20

// taskPollInterval is how often an acked task is polled for its result.
const taskPollInterval = 500 * time.Millisecond

// Directory resolves agent names to cards. On a miss the client triggers
// exactly one refresh before giving up.
type Directory interface {
	Lookup(name string) (agent.Card, bool)
	Refresh(ctx context.Context) []agent.Card
}

// Client sends queries to peer agents over JSON-RPC. Every failure is
// wrapped in a domain.CommunicationError so capability handlers can treat
// peer trouble as recoverable.
type Client struct {
	agentName  string
	directory  Directory
	httpClient *http.Client
	timeout    time.Duration
	tracer     *telemetry.SpanManager
	metrics    *telemetry.Metrics
	emitter    *events.Emitter

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
	breaker  config.Breaker
}

// New creates a communication client. metrics and emitter may be nil.
func New(cfg config.Client, breaker config.Breaker, agentName string, directory Directory, tracer *telemetry.SpanManager, metrics *telemetry.Metrics, emitter *events.Emitter) *Client {
	return &Client{
		agentName: agentName,
		directory: directory,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout:  cfg.Timeout,
		tracer:   tracer,
		metrics:  metrics,
		emitter:  emitter,
		breakers: make(map[string]*resilience.Breaker),
		breaker:  breaker,
	}
}

// Send delivers the query to the named peer and returns its textual
// response. The overall call, including one on-demand discovery refresh
// and any task polling, is bounded by the configured client timeout.
func (c *Client) Send(ctx context.Context, target, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var response string
	err := c.tracer.WithSpan(ctx, "agent.communication",
		telemetry.CommunicationAttrs(c.agentName, target),
		func(ctx context.Context) error {
			var sendErr error
			response, sendErr = c.send(ctx, target, query)
			return sendErr
		})

	latency := time.Since(start)
	c.observe(ctx, target, latency, err)

	if err != nil {
		var cerr *domain.CommunicationError
		if !errors.As(err, &cerr) {
			err = &domain.CommunicationError{Target: target, Err: err}
		}
		return "", err
	}
	return response, nil
}

func (c *Client) send(ctx context.Context, target, query string) (string, error) {
	card, err := c.resolve(ctx, target)
	if err != nil {
		return "", err
	}

	var resp *a2a.Response
	call := func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.post(ctx, card.URL, c.buildRequest(query))
		return callErr
	}

	// A refused connection gets one immediate retry; anything the peer may
	// have already received does not.
	err = c.breakerFor(target).Execute(func() error {
		return resilience.RetryOnceOnRefused(ctx, call)
	})
	if err != nil {
		return "", &domain.CommunicationError{Target: target, Err: err}
	}

	if resp.Error != nil {
		return "", &domain.CommunicationError{Target: target, Err: resp.Error}
	}

	return c.extractResponse(ctx, target, card, resp.Result)
}

// resolve looks the target up in the directory, refreshing once on a
// miss. Still unknown after that means no known route.
func (c *Client) resolve(ctx context.Context, target string) (agent.Card, error) {
	if card, ok := c.directory.Lookup(target); ok {
		return card, nil
	}

	slog.Info("peer unknown, refreshing discovery", "target", target)
	c.directory.Refresh(ctx)

	card, ok := c.directory.Lookup(target)
	if !ok {
		return agent.Card{}, &domain.CommunicationError{
			Target: target,
			Err:    fmt.Errorf("no known route: %w", domain.ErrNotFound),
		}
	}
	return card, nil
}

// buildRequest assembles the message/send request for a query.
func (c *Client) buildRequest(query string) *a2a.Request {
	msg := a2a.OutboundMessage{
		MessageID: uuid.NewString(),
		Role:      string(agent.RoleUser),
		Parts:     []a2a.OutboundPart{{Text: query}},
	}
	params, _ := json.Marshal(struct {
		Message a2a.OutboundMessage `json:"message"`
	}{Message: msg})

	return &a2a.Request{
		JSONRPC: a2a.Version,
		ID:      msg.MessageID,
		Method:  a2a.MethodMessageSend,
		Params:  params,
	}
}

// post performs one JSON-RPC exchange with the peer.
func (c *Client) post(ctx context.Context, url string, rpcReq *a2a.Request) (*a2a.Response, error) {
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp a2a.Response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", httpResp.StatusCode, err)
	}
	if rpcResp.Error == nil && httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", httpResp.StatusCode)
	}
	return &rpcResp, nil
}

// extractResponse pulls the answer text out of a message/send result. A
// task acknowledgement means the peer went async; the task is then polled
// until terminal or the call deadline expires.
func (c *Client) extractResponse(ctx context.Context, target string, card agent.Card, result json.RawMessage) (string, error) {
	var sr struct {
		Message json.RawMessage `json:"message"`
		Task    json.RawMessage `json:"task"`
	}
	if err := json.Unmarshal(result, &sr); err != nil {
		return "", &domain.CommunicationError{Target: target, Err: fmt.Errorf("decode result: %w", err)}
	}

	if len(sr.Message) > 0 {
		msg, err := envelope.Normalize(sr.Message)
		if err != nil {
			return "", &domain.CommunicationError{Target: target, Err: err}
		}
		return msg.Text, nil
	}

	if len(sr.Task) > 0 {
		var ack struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(sr.Task, &ack); err != nil || ack.ID == "" {
			return "", &domain.CommunicationError{Target: target, Err: errors.New("task ack without id")}
		}
		slog.Info("peer answered with task, polling", "target", target, "task_id", ack.ID)
		return c.pollTask(ctx, target, card, ack.ID)
	}

	return "", &domain.CommunicationError{Target: target, Err: errors.New("result carries neither message nor task")}
}

// pollTask polls tasks/get until the task is terminal. The call deadline
// caps the wait.
func (c *Client) pollTask(ctx context.Context, target string, card agent.Card, taskID string) (string, error) {
	params, _ := json.Marshal(a2a.TaskGetParams{ID: taskID})
	ticker := time.NewTicker(taskPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", &domain.CommunicationError{
				Target: target,
				Err:    fmt.Errorf("task %s: %w", taskID, ctx.Err()),
			}
		case <-ticker.C:
		}

		resp, err := c.post(ctx, card.URL, &a2a.Request{
			JSONRPC: a2a.Version,
			ID:      uuid.NewString(),
			Method:  a2a.MethodTasksGet,
			Params:  params,
		})
		if err != nil {
			return "", &domain.CommunicationError{Target: target, Err: err}
		}
		if resp.Error != nil {
			return "", &domain.CommunicationError{Target: target, Err: resp.Error}
		}

		var tr a2a.TaskResult
		if err := json.Unmarshal(resp.Result, &tr); err != nil {
			return "", &domain.CommunicationError{Target: target, Err: fmt.Errorf("decode task: %w", err)}
		}

		if !tr.Task.State.IsTerminal() {
			continue
		}
		if tr.Task.Error != "" {
			return "", &domain.CommunicationError{Target: target, Err: errors.New(tr.Task.Error)}
		}
		return tr.Task.Result, nil
	}
}

// breakerFor returns the circuit breaker for a target, creating it on
// first use.
func (c *Client) breakerFor(target string) *resilience.Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.breakers[target]
	if !ok {
		b = resilience.NewBreaker(c.breaker.MaxFailures, c.breaker.Timeout)
		c.breakers[target] = b
	}
	return b
}

// observe records the call on metrics and the event stream.
func (c *Client) observe(ctx context.Context, target string, latency time.Duration, err error) {
	if c.metrics != nil {
		c.metrics.AgentCalls.Add(ctx, 1)
		c.metrics.CallDuration.Record(ctx, latency.Seconds())
	}
	if c.emitter != nil {
		evType := events.TypeAgentCommunication
		if err != nil {
			evType = events.TypeQueryError
		}
		c.emitter.Emit(events.Event{
			Type:        evType,
			Agent:       c.agentName,
			TargetAgent: target,
			LatencyMS:   latency.Milliseconds(),
		})
	}
	if err != nil {
		slog.Warn("inter-agent call failed", "target", target, "latency", latency, "error", err)
		return
	}
	slog.Info("inter-agent call succeeded", "target", target, "latency", latency)
}
