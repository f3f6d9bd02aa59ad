package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gmgolfo/sales-analyst/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "sales-analyst",
	Short:        "Sales pipeline analytics for Kommo CRM",
	Long:         "Pulls lead records from the Kommo API, enriches them with derived metrics (state, health, durations), scores active leads, and exports or serves the results.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

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
