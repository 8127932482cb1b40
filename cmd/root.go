package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terraledger/mrv-cli/internal/config"
	"github.com/terraledger/mrv-cli/internal/registry"
)

var (
	cfg     *config.Config
	catalog *registry.Catalog
)

var rootCmd = &cobra.Command{
	Use:   "mrv",
	Short: "Digital MRV toolkit for carbon-removal credits",
	Long:  "Manages data-injection sessions against registry formula trees, runs Net CORC calculations and gap analysis, and gates submissions on readiness.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		cat, err := registry.LoadDir(cfg.Registry.ConfigDir)
		if err != nil {
			return fmt.Errorf("load registries: %w", err)
		}
		catalog = cat

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
