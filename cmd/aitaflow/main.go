package main

import (
	"fmt"
	"os"

	"aitaflow/internal"
	"aitaflow/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	envFile    string
	configFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	globals := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "aitaflow",
		Short:         "Collect judged discussion threads and derive training labels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&globals.envFile, "env-file", ".env", "Environment file to load when present")
	rootCmd.PersistentFlags().StringVar(&globals.configFile, "config", "", "Optional YAML config overlay")

	rootCmd.AddCommand(
		newRunCmd(globals),
		newServeCmd(globals),
		newMigrateCmd(globals),
		newClassifyCmd(),
		newLabelsCmd(),
		newRangesCmd(),
		newReportCmd(),
	)
	return rootCmd
}

// loadConfig reads .env (if present), the environment and the YAML overlay
func loadConfig(globals *globalFlags) (*config.Config, *internal.Logger, error) {
	if globals.envFile != "" {
		if err := godotenv.Load(globals.envFile); err != nil && !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("failed to load %s: %w", globals.envFile, err)
		}
	}

	cfg, err := config.LoadFile(globals.configFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)), nil
}
