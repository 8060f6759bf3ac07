package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Ocean50ul/home-server/internal/catalog"
	"github.com/Ocean50ul/home-server/internal/config"
	"github.com/Ocean50ul/home-server/internal/media/probe"
	"github.com/Ocean50ul/home-server/internal/reconcile"
	"github.com/Ocean50ul/home-server/internal/scan"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Scan the music library and reconcile the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.runLogger(cfg)

			return withRunLock(cfg, func() error {
				store, err := catalog.Open(cfg)
				if err != nil {
					return err
				}
				defer store.Close()

				scanResult, report, err := runSync(cmd.Context(), cfg, store, logger)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				printScanSummary(out, cfg.Library.MusicPath, scanResult)
				printSyncReport(out, report)
				return nil
			})
		},
	}
}

// runSync walks the music library and reconciles the catalog against what
// the walk found. Shared with `serve --sync-first`.
func runSync(ctx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*scan.Result, *reconcile.Report, error) {
	prober := probe.NewExtractor(
		probe.WithBinary(cfg.FFprobeBinary()),
		probe.WithLogger(logger),
	)
	scanner := scan.New(cfg.Library.MusicPath, prober, scan.WithLogger(logger))
	scanResult, err := scanner.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}

	engine := reconcile.NewEngine(store, reconcile.WithLogger(logger))
	report, err := engine.Synchronize(ctx, scanResult.Descriptors)
	if err != nil {
		return nil, nil, err
	}
	return scanResult, report, nil
}

func printScanSummary(out io.Writer, root string, result *scan.Result) {
	fmt.Fprintf(out, "Scanned %s: %d audio files", root, len(result.Descriptors))
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, ", %d skipped with errors", len(result.Errors))
	}
	fmt.Fprintln(out)
	for _, fileError := range result.Errors {
		fmt.Fprintf(out, "  %s: %v\n", fileError.Path, fileError.Err)
	}
}

func printSyncReport(out io.Writer, report *reconcile.Report) {
	if report.Empty() {
		fmt.Fprintln(out, "Catalog already up to date")
		return
	}

	rows := [][]string{
		entityRow("artists", report.AddedArtists, report.DeletedArtists),
		entityRow("albums", report.AddedAlbums, report.DeletedAlbums),
		entityRow("tracks", report.AddedTracks, report.DeletedTracks),
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Entity", "Added", "Skipped", "Add failed", "Deleted", "Delete failed"},
		rows, 1, 2, 3, 4, 5))

	if len(report.InvalidFiles) > 0 {
		fmt.Fprintf(out, "%d files failed validation:\n", len(report.InvalidFiles))
		for _, invalid := range report.InvalidFiles {
			fmt.Fprintf(out, "  %s: %v\n", invalid.Path, invalid.Err)
		}
	}
}

func entityRow(name string, added *catalog.BatchSaveReport, deleted *catalog.BatchDeleteReport) []string {
	return []string{
		name,
		strconv.Itoa(len(added.SuccessfulIDs())),
		strconv.Itoa(len(added.Skipped())),
		strconv.Itoa(len(added.Failed())),
		strconv.Itoa(len(deleted.DeletedIDs)),
		strconv.Itoa(len(deleted.Failed)),
	}
}
