package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vishwawinit/nfpc-1-sub001/config"
)

// ConfigService owns loading and saving the application configuration.
type ConfigService struct {
	storageDir string
	logger     func(string)
	mu         sync.RWMutex
}

// NewConfigService creates a new ConfigService instance.
func NewConfigService(logger func(string)) *ConfigService {
	if logger == nil {
		logger = func(string) {}
	}
	return &ConfigService{logger: logger}
}

// GetStorageDir returns the storage directory path (~/AskData by default).
func (cs *ConfigService) GetStorageDir() (string, error) {
	cs.mu.RLock()
	sd := cs.storageDir
	cs.mu.RUnlock()

	if sd != "" {
		return sd, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", WrapError("config", "GetStorageDir", err)
	}
	return filepath.Join(home, "AskData"), nil
}

// SetStorageDir overrides the storage directory, mainly for tests.
func (cs *ConfigService) SetStorageDir(dir string) {
	cs.mu.Lock()
	cs.storageDir = dir
	cs.mu.Unlock()
}

// GetConfigPath returns the config file path.
func (cs *ConfigService) GetConfigPath() (string, error) {
	dir, err := cs.GetStorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfig loads the configuration from disk. A missing file yields the
// defaults rather than an error.
func (cs *ConfigService) GetConfig() (config.Config, error) {
	path, err := cs.GetConfigPath()
	if err != nil {
		return config.Config{}, err
	}

	dir, _ := cs.GetStorageDir()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := config.Config{DataDir: dir}
		cfg.Validate()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, WrapError("config", "GetConfig", err)
	}

	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return config.Config{}, WrapError("config", "GetConfig", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = dir
	}
	cfg.Validate()
	return cfg, nil
}

// SaveConfig validates and writes the configuration to disk.
func (cs *ConfigService) SaveConfig(cfg config.Config) error {
	if cfg.DataDir != "" {
		info, err := os.Stat(cfg.DataDir)
		if err != nil {
			if os.IsNotExist(err) {
				return WrapError("config", "SaveConfig", fmt.Errorf("data directory does not exist: %s", cfg.DataDir))
			}
			return WrapError("config", "SaveConfig", err)
		}
		if !info.IsDir() {
			return WrapError("config", "SaveConfig", fmt.Errorf("data path is not a directory: %s", cfg.DataDir))
		}
	}

	dir, err := cs.GetStorageDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return WrapError("config", "SaveConfig", fmt.Errorf("failed to create storage dir: %w", err))
	}

	cfg.Validate()

	path := filepath.Join(dir, "config.json")
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return WrapError("config", "SaveConfig", fmt.Errorf("failed to marshal config: %w", err))
	}

	// 0600 since the file carries API keys
	if err := os.WriteFile(path, data, 0600); err != nil {
		return WrapError("config", "SaveConfig", fmt.Errorf("failed to write config file: %w", err))
	}

	cs.logger("Configuration saved to disk")
	return nil
}
