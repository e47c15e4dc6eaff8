package config

import (
	"os"
	"path/filepath"
)

// Config holds all runtime configuration for the vetwatch server.
type Config struct {
	Server  ServerConfig
	Gateway GatewayConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
	// AuthToken guards the /api tree when non-empty. Empty leaves the
	// API open, matching the original deployment.
	AuthToken string
}

type GatewayConfig struct {
	// BaseURL of the upstream chat-completion gateway. Empty selects the
	// offline simulation mode; that is the designed default, not an error.
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Gateway: GatewayConfig{
			Model:       "anthropic/claude-sonnet-4",
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults and VETWATCH_* environment
// variables. It never fails on missing gateway settings: an unset base URL
// simply means the completion client runs in simulation mode.
func Load() Config {
	cfg := defaults()
	applyEnvOverrides(&cfg)
	return cfg
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "vetwatch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".local", "share", "vetwatch")
}
