/*
File: telemetryhub/config/hub_config.go
Description: Stage 1 maps the raw YAML structs onto AppConfig with
defaults applied; stage 2 layers environment overrides on top and
validates the result.
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when the YAML leaves a field unset.
const (
	defaultSystemChannel     = "system"
	defaultDataChannel       = "flights"
	defaultHeartbeatInterval = 30 * time.Second
	defaultTokenTTL          = time.Hour
	defaultMaxQueueDepth     = 256
)

// NewConfigFromYaml converts the raw unmarshaled data into a base AppConfig,
// applying defaults. Environment overrides are not yet applied.
func NewConfigFromYaml(yamlCfg *YamlConfig) (*AppConfig, error) {
	appCfg := &AppConfig{
		RunMode:           yamlCfg.RunMode,
		APIPort:           yamlCfg.APIPort,
		WebSocketPort:     yamlCfg.WebSocketPort,
		Cors:              yamlCfg.Cors,
		RequireAuth:       yamlCfg.Auth.RequireAuth,
		TokenTTL:          time.Duration(yamlCfg.Auth.TokenTTLSeconds) * time.Second,
		SystemChannel:     yamlCfg.Hub.SystemChannel,
		DataChannel:       yamlCfg.Hub.DataChannel,
		HeartbeatInterval: time.Duration(yamlCfg.Hub.HeartbeatIntervalSeconds) * time.Second,
		MaxQueueDepth:     yamlCfg.Hub.MaxQueueDepth,
	}

	if appCfg.SystemChannel == "" {
		appCfg.SystemChannel = defaultSystemChannel
	}
	if appCfg.DataChannel == "" {
		appCfg.DataChannel = defaultDataChannel
	}
	if appCfg.HeartbeatInterval <= 0 {
		appCfg.HeartbeatInterval = defaultHeartbeatInterval
	}
	if appCfg.TokenTTL <= 0 {
		appCfg.TokenTTL = defaultTokenTTL
	}
	if appCfg.MaxQueueDepth <= 0 {
		appCfg.MaxQueueDepth = defaultMaxQueueDepth
	}

	return appCfg, nil
}

// ApplyEnvOverrides layers deployment-environment settings over the embedded
// file: secrets always, ports when set.
func ApplyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("TOKEN_SECRET"); v != "" {
		cfg.TokenSecret = []byte(v)
	}
	if v := os.Getenv("PRODUCER_API_KEY"); v != "" {
		cfg.ProducerAPIKey = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		cfg.APIPort = v
	}
	if v := os.Getenv("WEBSOCKET_PORT"); v != "" {
		cfg.WebSocketPort = v
	}
}

// LogLevel maps run_mode onto the process log level: production runs at
// info, every other mode at debug.
func (c *AppConfig) LogLevel() zerolog.Level {
	if c.RunMode == "prod" {
		return zerolog.InfoLevel
	}
	return zerolog.DebugLevel
}

// Validate rejects configurations the services cannot start with.
func (c *AppConfig) Validate() error {
	if c.APIPort == "" {
		return fmt.Errorf("config: api_port is required")
	}
	if c.WebSocketPort == "" {
		return fmt.Errorf("config: websocket_port is required")
	}
	if c.RequireAuth && len(c.TokenSecret) == 0 {
		return fmt.Errorf("config: auth.require_auth is set but TOKEN_SECRET is not")
	}
	return nil
}
