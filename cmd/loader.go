package cmd

import (
	_ "embed" // Required for go:embed
	"fmt"

	"github.com/tinywideclouds/go-telemetry-hub/telemetryhub/config"
	"gopkg.in/yaml.v3"
)

//go:embed prod/config.yaml
var configFile []byte

// Load parses the embedded configuration file, applies environment overrides,
// and validates the result.
func Load() (*config.AppConfig, error) {
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedded yaml config: %w", err)
	}

	appCfg, err := config.NewConfigFromYaml(&yamlCfg)
	if err != nil {
		return nil, err
	}

	config.ApplyEnvOverrides(appCfg)
	if err := appCfg.Validate(); err != nil {
		return nil, err
	}

	return appCfg, nil
}
