package node

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"chratos.dev/node/core"
)

type Config struct {
	Network      string `yaml:"network"`
	DataDir      string `yaml:"data_dir"`
	LogLevel     string `yaml:"log_level"`
	GapCacheSize int    `yaml:"gap_cache_size"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".chratos"
	}
	return filepath.Join(home, ".chratos")
}

func DefaultConfig() Config {
	return Config{
		Network:      "test",
		DataDir:      DefaultDataDir(),
		LogLevel:     "info",
		GapCacheSize: DefaultGapCacheSize,
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	if _, err := NetworkFromName(cfg.Network); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.GapCacheSize <= 0 {
		return errors.New("gap_cache_size must be > 0")
	}
	return nil
}

// NetworkFromName maps the config's network name to chain parameters.
func NetworkFromName(name string) (core.Network, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "test":
		return core.NetworkTest, nil
	case "beta":
		return core.NetworkBeta, nil
	case "live":
		return core.NetworkLive, nil
	}
	return core.NetworkTest, fmt.Errorf("unknown network %q", name)
}
