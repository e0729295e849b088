// attestkit - wallet session and attestation decoding toolkit
// License: MIT

package main

import (
	"fmt"

	"github.com/attestkit/attestkit/pkg/attest"
	"github.com/attestkit/attestkit/pkg/registry"
	"github.com/attestkit/attestkit/pkg/signer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

func newKeyCmd() *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Create or show the local signing key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks := signer.New(keystoreDir())

			if ks.Exists() {
				addr, err := ks.Address()
				if err != nil {
					return err
				}
				fmt.Printf("Signing key: %s\n", addr.Hex())
				return nil
			}

			if passphrase == "" {
				return fmt.Errorf("no key yet; pass --passphrase to create one")
			}
			addr, err := ks.Create(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Created signing key %s\n", addr.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase for a new key")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var passphrase string
	var revocable bool

	cmd := &cobra.Command{
		Use:   "register <schema>",
		Short: "Register a schema definition like \"uint8 score, string name\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client, err := registry.NewClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			ks := signer.New(keystoreDir())
			from, err := ks.Address()
			if err != nil {
				return err
			}
			if err := ks.Unlock(passphrase); err != nil {
				return err
			}
			defer ks.Lock()

			uid, tx, err := client.RegisterSchema(cmd.Context(), from, args[0], common.Address{}, revocable, ks.SignerFunc())
			if err != nil {
				return err
			}

			fmt.Printf("Schema UID: %s\n", uid.Hex())
			fmt.Printf("Tx:         %s\n", tx.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "keystore passphrase")
	cmd.Flags().BoolVar(&revocable, "revocable", true, "whether attestations under this schema can be revoked")
	return cmd
}

func newAttestCmd() *cobra.Command {
	var passphrase, schemaUID, recipient, payload string
	var revocable bool

	cmd := &cobra.Command{
		Use:   "attest",
		Short: "Issue an attestation with an ABI-encoded payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := attest.ValidateUID(schemaUID); err != nil {
				return err
			}
			if !common.IsHexAddress(recipient) {
				return fmt.Errorf("invalid recipient address %q", recipient)
			}
			data, err := hexutil.Decode(payload)
			if err != nil {
				return fmt.Errorf("invalid payload hex: %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client, err := registry.NewClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			ks := signer.New(keystoreDir())
			from, err := ks.Address()
			if err != nil {
				return err
			}
			if err := ks.Unlock(passphrase); err != nil {
				return err
			}
			defer ks.Lock()

			uid, tx, err := client.Attest(
				cmd.Context(),
				from,
				common.HexToHash(schemaUID),
				common.HexToAddress(recipient),
				data,
				revocable,
				ks.SignerFunc(),
			)
			if err != nil {
				return err
			}

			fmt.Printf("Attestation UID: %s\n", uid.Hex())
			fmt.Printf("Tx:              %s\n", tx.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "keystore passphrase")
	cmd.Flags().StringVar(&schemaUID, "schema-uid", "", "schema UID (0x-prefixed, 32 bytes)")
	cmd.Flags().StringVar(&recipient, "recipient", "", "recipient address")
	cmd.Flags().StringVar(&payload, "payload", "0x", "ABI-encoded payload hex")
	cmd.Flags().BoolVar(&revocable, "revocable", true, "whether the attestation can be revoked")
	cmd.MarkFlagRequired("schema-uid")
	cmd.MarkFlagRequired("recipient")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <uid>",
		Short: "Fetch an attestation and decode its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := attest.ValidateUID(args[0]); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client, err := registry.NewClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			rec, err := client.GetAttestation(cmd.Context(), common.HexToHash(args[0]))
			if err != nil {
				return err
			}

			decoded := attest.Decode(cmd.Context(), rec, client.SchemaLookup())

			fmt.Printf("UID:       %s\n", rec.UID.Hex())
			fmt.Printf("Status:    %s\n", decoded.Status)
			fmt.Printf("Issued:    %s\n", decoded.IssuedOnDisplay)
			fmt.Printf("Recipient: %s\n", rec.Recipient.Hex())
			fmt.Printf("Attester:  %s\n", rec.Attester.Hex())
			if decoded.SchemaString != "" {
				fmt.Printf("Schema:    %s\n", decoded.SchemaString)
			}
			if len(decoded.Fields) > 0 {
				fmt.Println("Fields:")
				for _, f := range decoded.Fields {
					fmt.Printf("  %s = %s\n", f.Name, f.Value)
				}
			} else {
				fmt.Printf("Payload:   %s\n", decoded.RawPayloadHex)
			}
			return nil
		},
	}
}
