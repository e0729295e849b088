// attestkit - wallet session and attestation decoding toolkit
// License: MIT

package main

import (
	"fmt"
	"time"

	"github.com/attestkit/attestkit/pkg/config"
	"github.com/attestkit/attestkit/pkg/provider"
	"github.com/attestkit/attestkit/pkg/session"
	"github.com/spf13/cobra"
)

var providerURL string

func addProviderFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&providerURL, "provider", "", "wallet provider RPC URL (defaults to the chain RPC)")
}

func openSession(cmd *cobra.Command, cfg *config.Config) (*session.Session, *provider.RPCProvider, error) {
	url := providerURL
	if url == "" {
		url = cfg.Chain.RPCURL()
	}

	p, err := provider.DialRPC(cmd.Context(), url, cfg.Session.RPCRateLimit)
	if err != nil {
		return nil, nil, err
	}

	var opts []session.Option
	if cfg.Session.ConnectTimeoutSeconds > 0 {
		opts = append(opts, session.WithTimeout(time.Duration(cfg.Session.ConnectTimeoutSeconds)*time.Second))
	}

	return session.New(p, &cfg.Chain, opts...), p, nil
}

func printSession(s *session.Session, cfg *config.Config) {
	fmt.Printf("Status:  %s\n", s.Status())
	if account, ok := s.Account(); ok {
		fmt.Printf("Account: %s\n", account.Hex())
	}
	if chainID, ok := s.ChainID(); ok {
		fmt.Printf("Chain:   %d (target %d)\n", chainID, cfg.Chain.ChainID)
	}
	if lastErr := s.LastError(); lastErr != "" {
		fmt.Printf("Error:   %s\n", lastErr)
	}
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show wallet session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, p, err := openSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer p.Close()
			defer s.Close()

			printSession(s, cfg)
			return nil
		},
	}
	addProviderFlag(cmd)
	return cmd
}

func newConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to the wallet provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, p, err := openSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer p.Close()
			defer s.Close()

			if err := s.Connect(cmd.Context()); err != nil {
				printSession(s, cfg)
				return err
			}

			printSession(s, cfg)
			return nil
		},
	}
	addProviderFlag(cmd)
	return cmd
}

func newSwitchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switch",
		Short: "Ask the wallet to switch to the target chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, p, err := openSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer p.Close()
			defer s.Close()

			if err := s.SwitchNetwork(cmd.Context()); err != nil {
				return err
			}

			fmt.Printf("Switch to %s (%d) requested\n", cfg.Chain.Name, cfg.Chain.ChainID)
			return nil
		},
	}
	addProviderFlag(cmd)
	return cmd
}
