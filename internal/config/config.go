package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/franknobox/agentland-go/pkg/logging"
)

const (
	userConfigDir  = ".config/agentland"
	configFileName = "config.yaml"
)

// Environment variables that override file configuration.
const (
	EnvEndpoint       = "AGENTLAND_ENDPOINT"
	EnvTargetID       = "AGENTLAND_TARGET_ID"
	EnvDeveloperToken = "AGENTLAND_DEVELOPER_TOKEN"
)

// Config is the SDK and CLI configuration.
type Config struct {
	// Endpoint is the base URL of the Agentland authorization server.
	Endpoint string `yaml:"endpoint,omitempty"`

	// TargetID identifies this client application to the server.
	TargetID string `yaml:"targetId,omitempty"`

	// Scope is the default scope requested during authentication.
	Scope string `yaml:"scope,omitempty"`

	// DeveloperToken is a non-expiring override credential for local
	// development. It bypasses the whole token lifecycle.
	DeveloperToken string `yaml:"developerToken,omitempty"`

	// StorageDir overrides the credential storage directory
	// (default: ~/.config/agentland).
	StorageDir string `yaml:"storageDir,omitempty"`

	// VerifyRemote enables remote verification of cached tokens.
	VerifyRemote bool `yaml:"verifyRemote,omitempty"`

	// LogLevel is debug, info, warn, or error (default: info).
	LogLevel string `yaml:"logLevel,omitempty"`
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		Endpoint: "https://auth.agentland.app",
		Scope:    "chat",
		LogLevel: "info",
	}
}

// GetDefaultConfigPathOrPanic returns the default config directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from the given directory, falling back to
// defaults when no config.yaml exists, and applies environment overrides.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			applyEnvOverrides(&config)
			return config, nil
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	applyEnvOverrides(&config)
	return config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv(EnvEndpoint); v != "" {
		config.Endpoint = v
	}
	if v := os.Getenv(EnvTargetID); v != "" {
		config.TargetID = v
	}
	if v := os.Getenv(EnvDeveloperToken); v != "" {
		config.DeveloperToken = v
	}
}

// Validate checks that the configuration is usable for authentication.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if c.TargetID == "" {
		return fmt.Errorf("target id is required (set targetId in config.yaml or %s)", EnvTargetID)
	}
	return nil
}
