package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/audience-sync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "audience-sync",
	Short: "Customer Match audience upload pipeline",
	Long:  "Fetches customer rows from the warehouse, hashes identifiers, segments by brand and behavior, and uploads each audience to Google Ads via offline user data jobs.",
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
