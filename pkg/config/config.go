package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Chain     ChainConfig     `json:"chain"`
	Contracts ContractsConfig `json:"contracts"`
	Session   SessionConfig   `json:"session"`
	Log       LogConfig       `json:"log"`
}

// ChainConfig is the full descriptor of the target chain. It doubles as the
// payload of a wallet add-chain request, so every field a wallet needs to
// register an unknown network must be present.
type ChainConfig struct {
	Name     string         `json:"name" env:"ATTESTKIT_CHAIN_NAME"`
	ChainID  int64          `json:"chain_id" env:"ATTESTKIT_CHAIN_ID"`
	RPCURLs  []string       `json:"rpc_urls" env:"ATTESTKIT_CHAIN_RPC_URLS"`
	Explorer string         `json:"explorer" env:"ATTESTKIT_CHAIN_EXPLORER"`
	Currency CurrencyConfig `json:"currency"`
}

type CurrencyConfig struct {
	Name     string `json:"name" env:"ATTESTKIT_CHAIN_CURRENCY_NAME"`
	Symbol   string `json:"symbol" env:"ATTESTKIT_CHAIN_CURRENCY_SYMBOL"`
	Decimals int    `json:"decimals" env:"ATTESTKIT_CHAIN_CURRENCY_DECIMALS"`
}

type ContractsConfig struct {
	EAS              string `json:"eas" env:"ATTESTKIT_CONTRACTS_EAS"`
	SchemaRegistry   string `json:"schema_registry" env:"ATTESTKIT_CONTRACTS_SCHEMA_REGISTRY"`
	NotFoundSentinel string `json:"not_found_sentinel" env:"ATTESTKIT_CONTRACTS_NOT_FOUND_SENTINEL"`
}

type SessionConfig struct {
	// ConnectTimeoutSeconds bounds wallet-prompt awaits. 0 means no timeout,
	// matching wallets that keep a prompt open indefinitely.
	ConnectTimeoutSeconds int `json:"connect_timeout_seconds" env:"ATTESTKIT_SESSION_CONNECT_TIMEOUT_SECONDS"`

	// RPCRateLimit caps outbound provider calls per second. 0 disables limiting.
	RPCRateLimit float64 `json:"rpc_rate_limit" env:"ATTESTKIT_SESSION_RPC_RATE_LIMIT"`
}

type LogConfig struct {
	Level string `json:"level" env:"ATTESTKIT_LOG_LEVEL"`
}

// RPCURL returns the primary RPC endpoint for the chain
func (c *ChainConfig) RPCURL() string {
	if len(c.RPCURLs) == 0 {
		return ""
	}
	return c.RPCURLs[0]
}

func DefaultConfig() *Config {
	return &Config{
		Chain: ChainConfig{
			Name:     "Sepolia",
			ChainID:  11155111,
			RPCURLs:  []string{"https://rpc.sepolia.org"},
			Explorer: "https://sepolia.etherscan.io",
			Currency: CurrencyConfig{
				Name:     "Sepolia Ether",
				Symbol:   "ETH",
				Decimals: 18,
			},
		},
		Contracts: ContractsConfig{
			EAS:              "0xC2679fBD37d54388Ce493F1DB75320D236e1815e",
			SchemaRegistry:   "0x0a7E2Ff54e76B8E6659aedc9103FB21c038050D0",
			NotFoundSentinel: "0x0000000000000000000000000000000000000000",
		},
		Session: SessionConfig{
			ConnectTimeoutSeconds: 0,
			RPCRateLimit:          10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks the fields every component depends on.
func (c *Config) Validate() error {
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("chain.chain_id must be positive, got %d", c.Chain.ChainID)
	}
	if len(c.Chain.RPCURLs) == 0 {
		return fmt.Errorf("chain.rpc_urls must not be empty")
	}
	return nil
}
