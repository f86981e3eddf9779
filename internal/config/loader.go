package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"calsync/pkg/logging"
)

const (
	userConfigDir  = ".config/calsync"
	configFileName = "config.yaml"
	storageDirName = "storage"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

// DefaultConfigDir returns ~/.config/calsync.
func DefaultConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configDir on top of the defaults and
// validates the result. A missing file yields the defaults.
func LoadConfig(configDir string) (Config, error) {
	configFilePath := filepath.Join(configDir, configFileName)
	config := DefaultConfig()

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, newFileError(configFilePath, "io", "cannot read configuration file", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			cfgErr := newFileError(configFilePath, "parse", "malformed YAML", err)
			var typeErr *yaml.TypeError
			if errors.As(err, &typeErr) {
				cfgErr.Suggestions = append(cfgErr.Suggestions, "check value types (durations look like \"30s\")")
			}
			return Config{}, cfgErr
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	if config.Storage.Dir == "" {
		config.Storage.Dir = filepath.Join(configDir, storageDirName)
	}

	if errs := config.Validate(); errs.HasErrors() {
		cfgErr := newFileError(configFilePath, "validation", "invalid configuration", errs)
		for _, e := range errs {
			cfgErr.Suggestions = append(cfgErr.Suggestions, e.Error())
		}
		return Config{}, cfgErr
	}

	return config, nil
}

// FilePath returns the path of config.yaml inside configDir.
func FilePath(configDir string) string {
	return filepath.Join(configDir, configFileName)
}

// Encode renders config as config.yaml content.
func Encode(config Config) ([]byte, error) {
	data, err := yaml.Marshal(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return data, nil
}

// Save writes config to configDir/config.yaml.
func Save(configDir string, config Config) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := Encode(config)
	if err != nil {
		return err
	}
	path := FilePath(configDir)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
