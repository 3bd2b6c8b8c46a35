package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bamsammich/zcopy/internal/config"
	"github.com/bamsammich/zcopy/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// globalOpts holds flags shared by every subcommand.
type globalOpts struct {
	verbose     bool
	quiet       bool
	logFile     string
	metricsFile string

	cfg      config.Config
	registry *prometheus.Registry
	closeLog func()
}

func run() int {
	var (
		g           globalOpts
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:           "zcopy",
		Short:         "Zero-copy file transfer with copy_file_range and splice",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "zcopy %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().
		StringVar(&g.logFile, "log-file", "", "write structured JSON log to FILE")
	rootCmd.PersistentFlags().
		StringVar(&g.metricsFile, "metrics-file", "", "write Prometheus metrics to FILE on exit")

	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newCopyCmd(&g))
	rootCmd.AddCommand(newSpliceCmd(&g))
	rootCmd.AddCommand(docsCmd)

	err := rootCmd.Execute()
	// Metrics are written even for failed transfers.
	if mErr := g.teardown(); mErr != nil && err == nil {
		err = mErr
	}
	if g.closeLog != nil {
		g.closeLog()
	}
	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		slog.Error("zcopy failed", "error", err)
		return 1
	}
	return 0
}

// setup configures logging, loads the config file and creates the metrics
// registry. It runs before every subcommand.
func (g *globalOpts) setup(_ *cobra.Command) error {
	logLevel := slog.LevelWarn
	if g.verbose {
		logLevel = slog.LevelDebug
	} else if !g.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	var logHandler slog.Handler = textHandler
	if g.logFile != "" {
		lf, err := os.Create(g.logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		g.closeLog = func() { _ = lf.Close() }
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "path", config.Path(), "error", err)
	}
	g.cfg = cfg

	if g.metricsFile != "" {
		g.registry = prometheus.NewRegistry()
	}
	return nil
}

func (g *globalOpts) teardown() error {
	if g.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(g.metricsFile, g.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
