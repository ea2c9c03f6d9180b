package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// ChannelConfig holds live-update channel tuning.
type ChannelConfig struct {
	URL               string `json:"url"`
	HeartbeatInterval string `json:"heartbeat_interval"`
	ReconnectDelay    string `json:"reconnect_delay"`
}

// AssistantConfig holds assistant pacing settings. The delays exist purely
// so a human watching the client can follow what the assistant is doing.
type AssistantConfig struct {
	ActionDelay        string `json:"action_delay"`
	ComposeSettleDelay string `json:"compose_settle_delay"`
}

// Config holds all configuration for the rmail client engine.
type Config struct {
	// Backend endpoints
	APIBaseURL string `json:"api_base_url"`

	Channel   ChannelConfig   `json:"channel"`
	Assistant AssistantConfig `json:"assistant"`

	// Transport
	RequestTimeout string `json:"request_timeout"`

	// Local state
	CredentialDir string `json:"credential_dir"`
	CachePath     string `json:"cache_path"`

	// Logging
	LogFile string `json:"log_file"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL: "http://localhost:8001/api",
		Channel: ChannelConfig{
			URL:               "ws://localhost:8001/api/ws",
			HeartbeatInterval: "25s",
			ReconnectDelay:    "3s",
		},
		Assistant: AssistantConfig{
			ActionDelay:        "600ms",
			ComposeSettleDelay: "400ms",
		},
		RequestTimeout: "15s",
		CredentialDir:  filepath.Join(defaultConfigDir(), "credentials"),
		CachePath:      filepath.Join(defaultConfigDir(), "cache", "rmail.db"),
		LogFile:        "",
	}
}

// LoadConfig loads configuration from file, falling back to defaults for
// anything the file does not set.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	return cfg, nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rmail")
}

// SaveConfig saves the configuration to a file.
func (c *Config) SaveConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetRequestTimeout returns the parsed transport timeout.
func (c *Config) GetRequestTimeout() time.Duration {
	return parseDuration(c.RequestTimeout, 15*time.Second)
}

// GetHeartbeatInterval returns the parsed keep-alive interval.
func (c *Config) GetHeartbeatInterval() time.Duration {
	return parseDuration(c.Channel.HeartbeatInterval, 25*time.Second)
}

// GetReconnectDelay returns the parsed fixed delay between reconnect attempts.
func (c *Config) GetReconnectDelay() time.Duration {
	return parseDuration(c.Channel.ReconnectDelay, 3*time.Second)
}

// GetActionDelay returns the parsed pause before each assistant action.
func (c *Config) GetActionDelay() time.Duration {
	return parseDuration(c.Assistant.ActionDelay, 600*time.Millisecond)
}

// GetComposeSettleDelay returns the parsed pause after opening compose.
func (c *Config) GetComposeSettleDelay() time.Duration {
	return parseDuration(c.Assistant.ComposeSettleDelay, 400*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return fallback
}
