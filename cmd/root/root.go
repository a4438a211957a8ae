// Package root assembles the ctxforge CLI: a thin host around
// pkg/pipeline demonstrating the external interface boundary with a
// deterministic stub worker in place of a real LM provider.
package root

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ctxforge/ctxforge/pkg/config"
	"github.com/ctxforge/ctxforge/pkg/logging"
)

type rootFlags struct {
	configPath string
	logFile    string
	jsonLogs   bool
	debug      bool
	enableOtel bool
}

// NewRootCmd builds the ctxforge root command.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "ctxforge",
		Short: "ctxforge - decompose, dispatch, and aggregate oversized inputs for an LM",
		Long: "ctxforge routes an input through decomposition and bounded-concurrency " +
			"dispatch when it's too large for a single LM context window, then " +
			"reassembles the partial answers into one reply.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if flags.debug {
				level = slog.LevelDebug
			}
			logger, err := logging.New(logging.Options{
				Level:    level,
				JSON:     flags.jsonLogs,
				FilePath: flags.logFile,
			})
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "failed to initialize logging:", err)
				logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a ctxforge YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "optional path to duplicate logs into a rotating file")
	cmd.PersistentFlags().BoolVar(&flags.jsonLogs, "json-logs", false, "emit structured JSON logs instead of text")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug-level logging")
	cmd.PersistentFlags().BoolVar(&flags.enableOtel, "otel", false, "enable OpenTelemetry tracing via OTEL_EXPORTER_OTLP_ENDPOINT")

	cmd.AddCommand(newProcessCmd(&flags))

	return cmd
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func fail(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
	return err
}
