// Configuration structure for streampush. Uses strict YAML decoding and
// explicit defaults.

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arkavo-org/streampush/internal/publisher"
)

// Config holds the complete streampush configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Server      ServerConfig          `yaml:"server"`
	Destination publisher.Destination `yaml:"destination"`
	StreamKey   string                `yaml:"stream_key,omitempty"` // Overrides any key in the destination URL
	Input       InputConfig           `yaml:"input"`
	Queue       QueueConfig           `yaml:"queue"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	HealthPort int `yaml:"health_port"` // Port for health endpoint
	HTTPPort   int `yaml:"http_port"`   // Port for status API, metrics, and websocket feed
}

// InputConfig defines the local frame source.
type InputConfig struct {
	Path     string `yaml:"path"`               // FLV file to read frames from
	Realtime bool   `yaml:"realtime,omitempty"` // Pace frames by their timestamps
	Loop     bool   `yaml:"loop,omitempty"`     // Restart from the beginning at EOF
}

// QueueConfig defines the frame queue between source and publisher.
type QueueConfig struct {
	Capacity int    `yaml:"capacity,omitempty"` // Ring slots, rounded up to a power of two
	Drop     string `yaml:"drop,omitempty"`     // "non_keyframes", "oldest", or "newest"
}

// Load reads configuration from a YAML file.
// Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Apply defaults
	cfg.setDefaults()

	return &cfg, nil
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Server.HealthPort == 0 {
		c.Server.HealthPort = 8080
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8081
	}
	if c.Queue.Capacity == 0 {
		c.Queue.Capacity = 256
	}
	if c.Queue.Drop == "" {
		c.Queue.Drop = "non_keyframes"
	}
	if !c.Input.Realtime && c.Input.Loop {
		// Looping a file at full speed floods the queue instantly.
		c.Input.Realtime = true
	}
}
