package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"buildcap/internal/config"
	"buildcap/internal/errors"
	"buildcap/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rootCmd = &cobra.Command{
		Use:           "buildcap",
		Short:         "Capture the compiler invocations of a .NET build as a workspace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
	logJSON    bool
	verbose    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "buildcap.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(tokenizeCmd)
}

// setup loads the configuration and builds the logger shared by a command.
func setup() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logJSON, verbose)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create logger")
	}
	return cfg, log, nil
}
