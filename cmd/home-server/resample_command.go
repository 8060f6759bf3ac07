package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Ocean50ul/home-server/internal/media/ffmpeg"
	"github.com/Ocean50ul/home-server/internal/media/probe"
	"github.com/Ocean50ul/home-server/internal/resample"
	"github.com/Ocean50ul/home-server/internal/scan"
)

func newResampleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resample",
		Short: "Downsample library files above the configured rate ceiling",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.runLogger(cfg)

			return withRunLock(cfg, func() error {
				prober := probe.NewExtractor(
					probe.WithBinary(cfg.FFprobeBinary()),
					probe.WithLogger(logger),
				)
				scanner := scan.New(cfg.Library.MusicPath, prober, scan.WithLogger(logger))
				scanResult, err := scanner.Scan(cmd.Context())
				if err != nil {
					return err
				}

				resampler := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary()))
				orchestrator := resample.New(cfg, resampler, resample.WithLogger(logger))
				report, err := orchestrator.ResampleLibrary(cmd.Context(), scanResult.Descriptors)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				printScanSummary(out, cfg.Library.MusicPath, scanResult)
				printResampleReport(out, report)
				return nil
			})
		},
	}
}

func printResampleReport(out io.Writer, report *resample.Report) {
	if report.Empty() {
		fmt.Fprintln(out, "No audio files to resample")
		return
	}

	rows := [][]string{
		{"processed", strconv.Itoa(len(report.Processed))},
	}
	for _, reason := range skipCounts(report.Skipped) {
		rows = append(rows, []string{"skipped: " + string(reason.reason), strconv.Itoa(reason.count)})
	}
	rows = append(rows, []string{"errored", strconv.Itoa(len(report.Errored))})
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Files"}, rows, 1))

	for _, errored := range report.Errored {
		fmt.Fprintf(out, "  %s: %v\n", errored.Path, errored.Err)
	}
}

type skipCount struct {
	reason resample.SkipReason
	count  int
}

func skipCounts(skipped []resample.SkippedFile) []skipCount {
	counts := make(map[resample.SkipReason]int)
	for _, file := range skipped {
		counts[file.Reason]++
	}
	reasons := make([]skipCount, 0, len(counts))
	for reason, count := range counts {
		reasons = append(reasons, skipCount{reason: reason, count: count})
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i].reason < reasons[j].reason })
	return reasons
}
