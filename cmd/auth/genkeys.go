package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/tutorial_catalog/internal/tokens"
)

type genKeysConfig struct {
	out  string
	bits int
}

// NewGenKeysCmd writes an RSA key pair for RS256 session tokens.
func NewGenKeysCmd() *cobra.Command {
	cfg := &genKeysConfig{}

	cmd := &cobra.Command{
		Use:   "genkeys",
		Short: "Generate private.pem and public.pem for RS256 signing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenKeys(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.out, "out", "config/jwt", "output directory")
	cmd.Flags().IntVar(&cfg.bits, "bits", 2048, "RSA key size")

	return cmd
}

func runGenKeys(cmd *cobra.Command, cfg *genKeysConfig) error {
	if cfg.bits < 2048 {
		return fmt.Errorf("key size must be at least 2048 bits, got %d", cfg.bits)
	}

	priv, pub, err := tokens.GenerateRSAPEM(cfg.bits)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.out, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", cfg.out, err)
	}

	privPath := filepath.Join(cfg.out, "private.pem")
	pubPath := filepath.Join(cfg.out, "public.pem")
	if err := os.WriteFile(privPath, priv, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	cmd.Printf("wrote %s and %s\n", privPath, pubPath)
	return nil
}
