package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/storeforge/storeforge/internal/config"
	"github.com/storeforge/storeforge/internal/observability"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "storeforge",
	Short:   "Storeforge generates a complete storefront from a niche description.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is optional; real deployments use the environment.
		_ = godotenv.Load()

		loaded, err := config.Load(cfgFile)
		if err != nil {
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "storeforge"})
			return err
		}
		cfg = loaded

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Debug("Configuration loaded", zap.String("default_provider", cfg.LLM.DefaultProvider))
		return nil
	},
}

// Execute runs the root command; it is the only entry point main calls.
func Execute() {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./storeforge.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
