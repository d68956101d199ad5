package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nexusforge/console/pkg/api"
	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errorNoticed.Load() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			logger.Log.WithError(err).Debug("command failed")
		}
		if api.IsUnauthorized(err) || errors.Is(err, errNotLoggedIn) {
			printInfo("Run 'console login' to start a new session.")
		}
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "NexusForge console - command-line client for the model registry",
	Long: `console is the terminal client for the NexusForge model registry.

It manages the factory, algorithm and model hierarchy, uploads and
downloads model artifacts, and follows server push notifications.

Examples:
  # Start a session
  console login --email ada@example.com

  # Browse the hierarchy
  console factories list
  console algorithms list --factory 1
  console models list --algorithm 3

  # Artifacts
  console files upload 7 ./weights.pt --type model_file
  console files download 7 12 --dir ./out

  # Follow notifications
  console watch`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Terminal defaults: readable lines, and only problems unless asked.
		setEnvDefault("LOG_FORMAT", "text")
		setEnvDefault("LOG_LEVEL", "warn")
		logger.Init()
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logger.SetVerbose()
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(factoriesCmd)
	rootCmd.AddCommand(algorithmsCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(watchCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file (overrides environment)")
}

func setEnvDefault(key, value string) {
	if os.Getenv(key) == "" {
		_ = os.Setenv(key, value)
	}
}
