package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ocean50ul/home-server/internal/prepare"
)

func newFixturesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Manage the synthetic audio fixture tree",
	}
	cmd.AddCommand(newFixturesPrepareCommand(ctx))
	cmd.AddCommand(newFixturesCleanupCommand(ctx))
	return cmd
}

func newFixturesPrepareCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Generate the audio fixture tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.runLogger(cfg)

			service := prepare.New(cfg, prepare.WithLogger(logger))
			state, err := service.GenerateFixtures(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Created %d audio fixtures and %d permission-stripped entries under %s\n",
				len(state.AudioFiles), len(state.StrippedFiles)+len(state.StrippedDirs), state.Root)
			return nil
		},
	}
}

func newFixturesCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Restore permissions and remove the fixture tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.runLogger(cfg)

			service := prepare.New(cfg, prepare.WithLogger(logger))
			if err := service.CleanupFixtures(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed fixtures under %s\n", cfg.Library.FixturesDir)
			return nil
		},
	}
}
