// Package config defines the two-stage configuration for the telemetry hub:
// raw YAML structs unmarshaled from the embedded config file, and the
// canonical, validated AppConfig used throughout the application.
package config

import "time"

// --- YAML-Specific Structs ---

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type YamlAuthConfig struct {
	RequireAuth     bool `yaml:"require_auth"`
	TokenTTLSeconds int  `yaml:"token_ttl_seconds"`
}

type YamlHubConfig struct {
	SystemChannel            string `yaml:"system_channel"`
	DataChannel              string `yaml:"data_channel"`
	HeartbeatIntervalSeconds int    `yaml:"heartbeat_interval_seconds"`
	MaxQueueDepth            int    `yaml:"max_queue_depth"`
}

// YamlConfig defines the structure for unmarshaling the embedded config.yaml file.
type YamlConfig struct {
	RunMode       string         `yaml:"run_mode"`
	APIPort       string         `yaml:"api_port"`
	WebSocketPort string         `yaml:"websocket_port"`
	Cors          YamlCorsConfig `yaml:"cors"`
	Auth          YamlAuthConfig `yaml:"auth"`
	Hub           YamlHubConfig  `yaml:"hub"`
}

// --- Application Config Struct ---

// AppConfig is the canonical, validated configuration object used throughout
// the application. Secrets are only ever populated from the environment.
type AppConfig struct {
	RunMode       string
	APIPort       string
	WebSocketPort string
	Cors          YamlCorsConfig

	RequireAuth bool
	TokenTTL    time.Duration
	// TokenSecret signs and verifies channel-scoped join tokens. Distribution
	// of the secret is owned by an external collaborator; the hub only
	// receives it via the TOKEN_SECRET environment variable.
	TokenSecret []byte
	// ProducerAPIKey guards the publish endpoint; empty disables the check.
	ProducerAPIKey string

	SystemChannel     string
	DataChannel       string
	HeartbeatInterval time.Duration
	MaxQueueDepth     int
}
