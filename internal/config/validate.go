// Validates configuration values and returns descriptive errors.

package config

import (
	"fmt"

	"github.com/arkavo-org/streampush/internal/core/bus"
)

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if c.Destination.URL == "" {
		return fmt.Errorf("destination: url is required")
	}
	if _, err := c.Destination.Parse(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if c.Input.Path == "" {
		return fmt.Errorf("input: path is required")
	}
	if c.Queue.Capacity < 0 {
		return fmt.Errorf("queue: capacity must be positive, got %d", c.Queue.Capacity)
	}
	if _, err := c.Queue.Strategy(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	return nil
}

// Validate checks server configuration values.
func (s *ServerConfig) Validate() error {
	if s.HealthPort <= 0 || s.HealthPort > 65535 {
		return fmt.Errorf("health_port must be between 1 and 65535, got %d", s.HealthPort)
	}
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535, got %d", s.HTTPPort)
	}
	if s.HealthPort == s.HTTPPort {
		return fmt.Errorf("health_port and http_port must be different, both are %d", s.HealthPort)
	}
	return nil
}

// Strategy maps the configured drop policy onto a backpressure strategy.
func (q *QueueConfig) Strategy() (bus.BackpressureStrategy, error) {
	switch q.Drop {
	case "", "non_keyframes":
		return bus.DropNonKeyframes, nil
	case "oldest":
		return bus.DropOldest, nil
	case "newest":
		return bus.DropNewest, nil
	default:
		return 0, fmt.Errorf("unknown drop policy %q", q.Drop)
	}
}
