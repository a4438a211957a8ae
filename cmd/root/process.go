package root

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxforge/ctxforge/pkg/agentmanager"
	"github.com/ctxforge/ctxforge/pkg/pipeline"
	"github.com/ctxforge/ctxforge/pkg/worker"
)

func newProcessCmd(flags *rootFlags) *cobra.Command {
	var (
		filePath string
		query    string
		strategy string
		files    []string
	)

	cmd := &cobra.Command{
		Use:   "process [content]",
		Short: "Run the decomposition-dispatch-aggregation pipeline over an input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return fail(cmd, err)
			}

			mgrOpts := []agentmanager.Option{agentmanager.WithMaxConcurrentAgents(cfg.MaxConcurrentAgents)}

			if flags.enableOtel {
				tracer, shutdown, err := setupOtel(cmd.Context())
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "otel setup failed, continuing without tracing:", err)
				} else {
					mgrOpts = append(mgrOpts, agentmanager.WithTracer(tracer))
					defer shutdown(cmd.Context())
				}
			}

			p := pipeline.New(&worker.Stub{}, cfg.ToRouterConfig(), nil, mgrOpts...)

			input := pipeline.Input{FilePath: filePath, Files: files}
			if len(args) == 1 {
				input.Content = args[0]
			}

			reply, err := p.Process(cmd.Context(), input, pipeline.Options{
				Query:            query,
				StrategyOverride: strategy,
				Timeout:          cfg.TaskTimeout(),
			})
			if err != nil {
				return fail(cmd, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reply)
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "path to a single file to process")
	cmd.Flags().StringArrayVar(&files, "files", nil, "one or more file paths/globs/directories for a multi-file bundle")
	cmd.Flags().StringVar(&query, "query", "", "optional user query to focus each chunk's task")
	cmd.Flags().StringVar(&strategy, "strategy", "", "optional strategy tag override")

	return cmd
}
