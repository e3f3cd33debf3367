// Package config provides hierarchical configuration loading for AgentLink.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for an AgentLink agent process.
type Config struct {
	Server    Server    `yaml:"server"`
	Agent     Agent     `yaml:"agent"`
	Discovery Discovery `yaml:"discovery"`
	Scheduler Scheduler `yaml:"scheduler"`
	Client    Client    `yaml:"client"`
	Breaker   Breaker   `yaml:"breaker"`
	Telemetry Telemetry `yaml:"telemetry"`
	Events    Events    `yaml:"events"`
	Logging   Logging   `yaml:"logging"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port string `yaml:"port"`
}

// Capability describes one advertised capability in the agent card.
type Capability struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Examples    []string `yaml:"examples"`
}

// Agent holds this agent's advertised identity. The card is built once at
// startup from these fields and never mutated afterwards.
type Agent struct {
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description"`
	Version      string       `yaml:"version"`
	URL          string       `yaml:"url"` // public base URL advertised to peers
	Capabilities []Capability `yaml:"capabilities"`
}

// Discovery holds peer discovery configuration.
type Discovery struct {
	Endpoints   []string      `yaml:"endpoints"` // peer base URLs to sweep
	Timeout     time.Duration `yaml:"timeout"`   // per-endpoint fetch timeout
	Interval    time.Duration `yaml:"interval"`  // periodic sweep interval; 0 disables
	MaxParallel int           `yaml:"max_parallel"`
}

// Scheduler holds sync/async execution configuration.
type Scheduler struct {
	SyncTimeout  time.Duration `yaml:"sync_timeout"`
	AsyncTimeout time.Duration `yaml:"async_timeout"`
	TaskTTL      time.Duration `yaml:"task_ttl"`     // retention of terminal tasks
	SyncMaxLen   int           `yaml:"sync_max_len"` // classifier boundary, bytes
}

// Client holds inter-agent communication client configuration.
type Client struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Breaker holds circuit breaker configuration for peer calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Telemetry holds OpenTelemetry export configuration. When disabled the
// span manager becomes a pass-through and nothing is exported.
type Telemetry struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // OTLP gRPC collector, host:port
	Insecure bool   `yaml:"insecure"`
}

// Events holds the communication-event stream configuration. The NATS sink
// is optional; with an empty URL events go to the log sink only.
type Events struct {
	BufferSize int    `yaml:"buffer_size"`
	NATSURL    string `yaml:"nats_url"`
	Subject    string `yaml:"subject"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Defaults returns a Config with sensible default values for a local demo
// agent.
func Defaults() Config {
	return Config{
		Server: Server{
			Port: "8001",
		},
		Agent: Agent{
			Name:        "agentlink",
			Description: "AgentLink demo agent",
			Version:     "0.1.0",
			URL:         "http://localhost:8001",
			Capabilities: []Capability{
				{Name: "echo", Description: "Echo the query back"},
				{Name: "ping", Description: "Liveness check"},
				{Name: "agent_info", Description: "List the agents discovered so far"},
				{Name: "ask_peer", Description: "Forward a query to a named peer agent",
					Examples: []string{"Beta: what can you do"}},
			},
		},
		Discovery: Discovery{
			Timeout:     3 * time.Second,
			Interval:    30 * time.Second,
			MaxParallel: 8,
		},
		Scheduler: Scheduler{
			SyncTimeout:  5 * time.Second,
			AsyncTimeout: 60 * time.Second,
			TaskTTL:      15 * time.Minute,
			SyncMaxLen:   16,
		},
		Client: Client{
			Timeout: 45 * time.Second,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Telemetry: Telemetry{
			Enabled:  false,
			Endpoint: "localhost:4317",
			Insecure: true,
		},
		Events: Events{
			BufferSize: 256,
			Subject:    "agentlink.events",
		},
		Logging: Logging{
			Level:   "info",
			Service: "agentlink",
		},
	}
}
