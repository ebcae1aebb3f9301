package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abatilo/triage/internal/config"
	"github.com/abatilo/triage/internal/logging"
	"github.com/abatilo/triage/internal/output"
	"github.com/abatilo/triage/internal/storage"
	"github.com/abatilo/triage/internal/strategy"
)

//nolint:gochecknoglobals // CLI flags, config and formatter are package-level by design
var (
	jsonOutput bool
	verbose    bool
	configPath string
	cfg        *config.Config
	formatter  output.Formatter
	metrics    *logging.Metrics

	shutdownTelemetry = func(context.Context) error { return nil }
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "triage",
		Short: "Rank tasks by urgency, importance, effort and dependencies",
		Long: "triage - scores a batch of tasks with a named weighting strategy, " +
			"detects dependency cycles and suggests what to work on next.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Until config resolves, errors honour --json alone.
			formatter = newFormatter(jsonOutput)

			if configPath != "" {
				if err := os.Setenv("TRIAGE_CONFIG", configPath); err != nil {
					return err
				}
			}
			overrides := &config.Config{}
			if cmd.Flags().Changed("verbose") {
				overrides.Verbose = config.Bool(verbose)
			}
			if jsonOutput {
				overrides.Output = "json"
			}
			loaded, err := config.Load(overrides)
			if err != nil {
				printError(err)
			}
			if err := loaded.Validate(); err != nil {
				printError(err)
			}
			cfg = loaded
			formatter = newFormatter(cfg.Output == "json")

			return setupTelemetry(cmd.Context(), cfg.VerboseEnabled())
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return flushTelemetry()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write logs, metrics and traces to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./.triage/config.yaml)")

	rootCmd.AddCommand(
		analyzeCmd(),
		suggestCmd(),
		strategiesCmd(),
		clearCmd(),
		serveCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newFormatter(asJSON bool) output.Formatter {
	if asJSON {
		return output.NewJSONFormatter()
	}
	return output.NewHumanFormatter()
}

// setupTelemetry exports telemetry to stderr when enabled; otherwise the
// global providers stay no-ops.
func setupTelemetry(ctx context.Context, enabled bool) error {
	if enabled {
		shutdown, err := logging.SetupOTelSDK(ctx, os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to setup OTel SDK: %w", err)
		}
		shutdownTelemetry = shutdown
	}

	m, err := logging.NewMetrics()
	if err != nil {
		return err
	}
	metrics = m
	return nil
}

func flushTelemetry() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return shutdownTelemetry(ctx)
}

func getStore() (*storage.Store, error) {
	return storage.NewStore(cfg.BaseDir)
}

func printOutput(s string) {
	os.Stdout.WriteString(s) //nolint:gosec // stdout write errors are unrecoverable
}

func printError(err error) {
	os.Stdout.WriteString(formatter.FormatError(err)) //nolint:gosec // stdout write errors are unrecoverable
	_ = flushTelemetry()
	os.Exit(1)
}

// strategiesCmd implements 'triage strategies'.
func strategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List scoring strategies and their weights",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printOutput(formatter.FormatStrategies(strategy.All()))
		},
	}
}

// clearCmd implements 'triage clear'.
func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved analysis for this project",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			store, err := getStore()
			if err != nil {
				printError(err)
			}
			if !store.HasSnapshot() {
				printOutput(formatter.FormatMessage("No saved analysis"))
				return
			}
			if err = store.DeleteSnapshot(); err != nil {
				printError(err)
			}
			printOutput(formatter.FormatMessage(fmt.Sprintf("Removed saved analysis from %s", store.BasePath())))
		},
	}
}
