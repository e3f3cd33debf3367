package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/semaphore"

	"github.com/Strob0t/AgentLink/internal/a2a"
	"github.com/Strob0t/AgentLink/internal/config"
	"github.com/Strob0t/AgentLink/internal/domain"
	"github.com/Strob0t/AgentLink/internal/domain/agent"
	"github.com/Strob0t/AgentLink/internal/telemetry"
)

// maxCardBytes bounds how much of a peer's card response is read.
const maxCardBytes = 1 << 20

// Client discovers peer agents by fetching their cards from the well-known
// path and keeps the KnownAgents registry current.
type Client struct {
	endpoints   []string
	timeout     time.Duration
	interval    time.Duration
	maxParallel int64
	httpClient  *http.Client
	known       *KnownAgents
	tracer      *telemetry.SpanManager
}

// NewClient creates a discovery client over the configured peer endpoints.
func NewClient(cfg config.Discovery, known *KnownAgents, tracer *telemetry.SpanManager) *Client {
	return &Client{
		endpoints:   cfg.Endpoints,
		timeout:     cfg.Timeout,
		interval:    cfg.Interval,
		maxParallel: int64(cfg.MaxParallel),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		known:  known,
		tracer: tracer,
	}
}

// DiscoverAgents fetches agent cards from the given endpoints with bounded
// concurrency. Endpoints that time out, refuse connection or return a
// malformed card are logged and skipped; the call returns whatever
// succeeded and never fails.
func (c *Client) DiscoverAgents(ctx context.Context, endpoints []string) []agent.Card {
	sem := semaphore.NewWeighted(c.maxParallel)
	var (
		mu    sync.Mutex
		cards []agent.Card
		wg    sync.WaitGroup
	)

	for _, endpoint := range endpoints {
		if err := sem.Acquire(ctx, 1); err != nil {
			break // context cancelled, return what we have
		}
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()
			defer sem.Release(1)

			card, err := c.fetchCard(ctx, endpoint)
			if err != nil {
				derr := &domain.DiscoveryError{Endpoint: endpoint, Err: err}
				slog.Warn("discovery: peer skipped", "endpoint", endpoint, "error", derr)
				return
			}

			mu.Lock()
			cards = append(cards, card)
			mu.Unlock()
			slog.Info("discovery: found agent", "name", card.Name, "endpoint", endpoint,
				"capabilities", len(card.Capabilities))
		}(endpoint)
	}

	wg.Wait()
	return cards
}

// fetchCard retrieves and normalizes one peer's card.
func (c *Client) fetchCard(ctx context.Context, endpoint string) (agent.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := strings.TrimSuffix(endpoint, "/") + a2a.WellKnownPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return agent.Card{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return agent.Card{}, fmt.Errorf("fetch card: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return agent.Card{}, fmt.Errorf("fetch card: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCardBytes))
	if err != nil {
		return agent.Card{}, fmt.Errorf("read card: %w", err)
	}

	return parseCard(body, endpoint)
}

// Refresh re-runs discovery over the configured endpoints and replaces
// registry entries per agent, last-write-wins. It returns the cards found
// in this sweep.
func (c *Client) Refresh(ctx context.Context) []agent.Card {
	var cards []agent.Card
	_ = c.tracer.WithSpan(ctx, "agent.discovery",
		telemetry.DiscoveryAttrs(len(c.endpoints)),
		func(ctx context.Context) error {
			cards = c.DiscoverAgents(ctx, c.endpoints)
			for _, card := range cards {
				c.known.Put(card)
			}
			return nil
		})

	slog.Info("discovery: sweep complete", "found", len(cards), "known", c.known.Len())
	return cards
}

// Lookup returns the cached card for the named agent. It never blocks on
// network activity.
func (c *Client) Lookup(name string) (agent.Card, bool) {
	return c.known.Lookup(name)
}

// Snapshot returns a copy of the known-agents registry.
func (c *Client) Snapshot() map[string]Peer {
	return c.known.Snapshot()
}

// Run performs an initial sweep and then refreshes at the configured
// interval until ctx is cancelled. With a zero interval only the initial
// sweep runs.
func (c *Client) Run(ctx context.Context) {
	c.Refresh(ctx)
	if c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}
