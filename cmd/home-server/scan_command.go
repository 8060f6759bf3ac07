package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ocean50ul/home-server/internal/media/probe"
	"github.com/Ocean50ul/home-server/internal/scan"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Walk the music library and list what a sync would see",
		Long: `Walk the music library, probe each audio file and print the resulting
descriptors without touching the catalog.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.runLogger(cfg)

			prober := probe.NewExtractor(
				probe.WithBinary(cfg.FFprobeBinary()),
				probe.WithLogger(logger),
			)
			scanner := scan.New(cfg.Library.MusicPath, prober, scan.WithLogger(logger))
			result, err := scanner.Scan(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printScanSummary(out, cfg.Library.MusicPath, result)
			if len(result.Descriptors) == 0 {
				return nil
			}

			rows := make([][]string, 0, len(result.Descriptors))
			for _, descriptor := range result.Descriptors {
				rate := "-"
				if descriptor.Metadata.SampleRate > 0 {
					rate = strconv.Itoa(descriptor.Metadata.SampleRate)
				}
				rows = append(rows, []string{
					descriptor.Metadata.ArtistName,
					descriptor.Metadata.AlbumName,
					descriptor.Metadata.TrackName,
					descriptor.FileType.String(),
					rate,
					humanize.Bytes(uint64(descriptor.FileSize)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Artist", "Album", "Track", "Type", "Rate (Hz)", "Size"},
				rows, 4, 5))
			return nil
		},
	}
}
