package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chain.ChainID != 11155111 {
		t.Errorf("ChainID = %d, want Sepolia default", cfg.Chain.ChainID)
	}
	if cfg.Contracts.EAS == "" || cfg.Contracts.SchemaRegistry == "" {
		t.Errorf("contracts = %+v, want defaults", cfg.Contracts)
	}
	if cfg.Chain.RPCURL() == "" {
		t.Errorf("RPCURL empty, want default endpoint")
	}
}

func TestLoadConfig_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"chain": {
			"name": "Local",
			"chain_id": 31337,
			"rpc_urls": ["http://localhost:8545"]
		},
		"session": {
			"connect_timeout_seconds": 30
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chain.Name != "Local" || cfg.Chain.ChainID != 31337 {
		t.Errorf("chain = %+v", cfg.Chain)
	}
	if cfg.Session.ConnectTimeoutSeconds != 30 {
		t.Errorf("ConnectTimeoutSeconds = %d, want 30", cfg.Session.ConnectTimeoutSeconds)
	}
	// Untouched sections keep defaults
	if cfg.Contracts.EAS == "" {
		t.Errorf("Contracts.EAS lost its default")
	}
}

func TestLoadConfig_EnvOverlay(t *testing.T) {
	t.Setenv("ATTESTKIT_CHAIN_ID", "10")
	t.Setenv("ATTESTKIT_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chain.ChainID != 10 {
		t.Errorf("ChainID = %d, want env override 10", cfg.Chain.ChainID)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestSaveConfig_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Chain.ChainID = 42

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Chain.ChainID != 42 {
		t.Errorf("ChainID = %d, want 42", loaded.Chain.ChainID)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.Chain.ChainID = 0
	if err := cfg.Validate(); err == nil {
		t.Errorf("zero chain id passed validation")
	}

	cfg = DefaultConfig()
	cfg.Chain.RPCURLs = nil
	if err := cfg.Validate(); err == nil {
		t.Errorf("empty rpc_urls passed validation")
	}
}
