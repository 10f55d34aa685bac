package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"aptsurge/server/config"
)

// rootOptions holds the global flags
type rootOptions struct {
	logLevel string
	lawd     []string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "aptsurge",
		Short:         "Apartment trade price surge rankings",
		Long:          "aptsurge downloads apartment trades from the MOLIT API, stores them per region and month,\nand publishes price surge rankings as static JSON documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	cmd.PersistentFlags().StringSliceVar(&opts.lawd, "lawd", nil, "comma separated LAWD codes (overrides LAWD_LIST)")

	cmd.AddCommand(newFetchCommand(opts))
	cmd.AddCommand(newSummaryCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	// A bare invocation runs the refresh
	cmd.RunE = newFetchCommand(opts).RunE

	return cmd
}

// setup loads the configuration, applies flag overrides and builds the logger
func setup(opts *rootOptions) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if len(opts.lawd) > 0 {
		cfg.API.LawdList = opts.lawd
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse log level %q: %w", cfg.LogLevel, err)
	}
	logger.SetLevel(level)

	return cfg, logger, nil
}
