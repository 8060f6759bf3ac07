package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Ocean50ul/home-server/internal/prepare"
)

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Bootstrap directories, the catalog, ffmpeg and fixtures",
		Long: `Create the configured directories, initialize the catalog database,
install a managed ffmpeg when none is available and generate the audio
fixture tree. Steps already satisfied are skipped, so rerunning is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.runLogger(cfg)

			return withRunLock(cfg, func() error {
				service := prepare.New(cfg, prepare.WithLogger(logger))
				results, runErr := service.Run(cmd.Context())

				out := cmd.OutOrStdout()
				printPrepareResults(out, results)
				if runErr != nil {
					return runErr
				}
				fmt.Fprintln(out, "Environment ready")
				return nil
			})
		},
	}
}

// printPrepareResults renders whatever steps completed. On failure the
// table shows how far the run got before the error.
func printPrepareResults(out io.Writer, results []prepare.StepResult) {
	if len(results) == 0 {
		return
	}
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		state := "done"
		if result.Skipped {
			state = "skipped"
		}
		rows = append(rows, []string{result.Name, state, result.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Step", "Status", "Detail"}, rows))
}
