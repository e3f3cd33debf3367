package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentlink.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGENTLINK_PORT")

	setString(&cfg.Agent.Name, "AGENTLINK_AGENT_NAME")
	setString(&cfg.Agent.Description, "AGENTLINK_AGENT_DESCRIPTION")
	setString(&cfg.Agent.Version, "AGENTLINK_AGENT_VERSION")
	setString(&cfg.Agent.URL, "AGENTLINK_AGENT_URL")

	setStringSlice(&cfg.Discovery.Endpoints, "AGENTLINK_DISCOVERY_ENDPOINTS")
	setDuration(&cfg.Discovery.Timeout, "AGENTLINK_DISCOVERY_TIMEOUT")
	setDuration(&cfg.Discovery.Interval, "AGENTLINK_DISCOVERY_INTERVAL")
	setInt(&cfg.Discovery.MaxParallel, "AGENTLINK_DISCOVERY_MAX_PARALLEL")

	setDuration(&cfg.Scheduler.SyncTimeout, "AGENTLINK_SYNC_TIMEOUT")
	setDuration(&cfg.Scheduler.AsyncTimeout, "AGENTLINK_ASYNC_TIMEOUT")
	setDuration(&cfg.Scheduler.TaskTTL, "AGENTLINK_TASK_TTL")
	setInt(&cfg.Scheduler.SyncMaxLen, "AGENTLINK_SYNC_MAX_LEN")

	setDuration(&cfg.Client.Timeout, "AGENTLINK_CLIENT_TIMEOUT")
	setInt(&cfg.Breaker.MaxFailures, "AGENTLINK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGENTLINK_BREAKER_TIMEOUT")

	setBool(&cfg.Telemetry.Enabled, "AGENTLINK_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "AGENTLINK_TELEMETRY_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "AGENTLINK_TELEMETRY_INSECURE")

	setInt(&cfg.Events.BufferSize, "AGENTLINK_EVENTS_BUFFER")
	setString(&cfg.Events.NATSURL, "NATS_URL")
	setString(&cfg.Events.Subject, "AGENTLINK_EVENTS_SUBJECT")

	setString(&cfg.Logging.Level, "AGENTLINK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGENTLINK_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGENTLINK_LOG_ASYNC")
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Agent.Name == "" {
		return errors.New("agent.name is required")
	}
	if cfg.Agent.URL == "" {
		return errors.New("agent.url is required")
	}
	if cfg.Discovery.MaxParallel < 1 {
		return errors.New("discovery.max_parallel must be >= 1")
	}
	if cfg.Scheduler.SyncTimeout <= 0 {
		return errors.New("scheduler.sync_timeout must be positive")
	}
	if cfg.Scheduler.AsyncTimeout <= 0 {
		return errors.New("scheduler.async_timeout must be positive")
	}
	if cfg.Scheduler.TaskTTL <= 0 {
		return errors.New("scheduler.task_ttl must be positive")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setStringSlice parses a comma-separated env value into dst.
func setStringSlice(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
