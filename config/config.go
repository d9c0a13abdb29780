package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config represents the application configuration
type Config struct {
	Wallet     string              `json:"wallet"` // connector name to use
	Connectors []ConnectorEndpoint `json:"connectors"`
	Session    SessionTuning       `json:"session"`
	Tokens     []TokenEntry        `json:"tokens"`
	Logger     bool                `json:"logger"`
}

// ConnectorEndpoint points at a local wallet daemon's connector socket
type ConnectorEndpoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SessionTuning holds the session poll tunables, in seconds. Zero means
// "use the built-in default".
type SessionTuning struct {
	LivenessSecs        int `json:"liveness_secs,omitempty"`
	StateSecs           int `json:"state_secs,omitempty"`
	ApprovalSecs        int `json:"approval_secs,omitempty"`
	ApprovalMaxAttempts int `json:"approval_max_attempts,omitempty"`
}

func secsOr(secs int, fallback time.Duration) time.Duration {
	if secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// LivenessInterval returns the liveness poll interval or fallback.
func (s SessionTuning) LivenessInterval(fallback time.Duration) time.Duration {
	return secsOr(s.LivenessSecs, fallback)
}

// StateInterval returns the account poll interval or fallback.
func (s SessionTuning) StateInterval(fallback time.Duration) time.Duration {
	return secsOr(s.StateSecs, fallback)
}

// ApprovalInterval returns the approval poll interval or fallback.
func (s SessionTuning) ApprovalInterval(fallback time.Duration) time.Duration {
	return secsOr(s.ApprovalSecs, fallback)
}

// TokenEntry is a watchlist token for the details view
type TokenEntry struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Wallet: "lace",
		Connectors: []ConnectorEndpoint{
			{
				Name: "lace",
				URL:  "ws://127.0.0.1:9955/connector/lace",
			},
		},
		Tokens: []TokenEntry{
			{Symbol: "WETH", Decimals: 18, Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"},
			{Symbol: "USDC", Decimals: 6, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
			{Symbol: "USDT", Decimals: 6, Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7"},
			{Symbol: "DAI", Decimals: 18, Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F"},
		},
		Logger: false,
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found
func LoadOrCreate(path string) Config {
	// Try to read existing config
	data, err := os.ReadFile(path)
	if err != nil {
		// File doesn't exist, create default
		cfg := DefaultConfig()
		Save(path, cfg)
		return cfg
	}

	// Parse existing config
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Invalid config, return default
		return DefaultConfig()
	}

	return cfg
}
