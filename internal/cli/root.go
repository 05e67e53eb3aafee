package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"retail-demand-optimizer/internal/app"
	"retail-demand-optimizer/internal/config"
	"retail-demand-optimizer/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	dbDriver  string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:           "retailopt",
	Short:         "Explore retail datasets and forecast weekly store demand",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil || cmd == versionCmd {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if dbDriver != "" {
			cfg.Database.Driver = dbDriver
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		logger := logging.NewLogger(cfg.Logging)
		appHandle = app.NewApp(cfg, logger, cmd.OutOrStdout())
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "Override database driver (postgres or duckdb)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(edaCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(storesCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
