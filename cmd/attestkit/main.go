// attestkit - wallet session and attestation decoding toolkit
// License: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/attestkit/attestkit/pkg/config"
	"github.com/attestkit/attestkit/pkg/logger"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "attestkit",
		Short:        "Issue, look up and decode on-chain attestations",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config file")

	rootCmd.AddCommand(
		newInitCmd(),
		newStatusCmd(),
		newConnectCmd(),
		newSwitchCmd(),
		newKeyCmd(),
		newRegisterCmd(),
		newAttestCmd(),
		newVerifyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".attestkit", "config.json")
}

func keystoreDir() string {
	return filepath.Join(filepath.Dir(configPath), "keys")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.Log.Level)
	return cfg, nil
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config already exists at %s", configPath)
			}
			if err := config.SaveConfig(configPath, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("Created config at %s\n", configPath)
			return nil
		},
	}
}
