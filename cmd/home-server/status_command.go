package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ocean50ul/home-server/internal/catalog"
	"github.com/Ocean50ul/home-server/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Library", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Music path", statusInfo, cfg.Library.MusicPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Catalog database", statusInfo, cfg.Database.Path, colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("External tools", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range deps.Check(cfg) {
				fmt.Fprintln(out, renderStatusLine(status.Name, toolStatusKind(status), toolStatusDetail(status), colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Catalog", colorize) {
				fmt.Fprintln(out, line)
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			artists, err := store.AllArtists(cmd.Context())
			if err != nil {
				return err
			}
			albums, err := store.AllAlbums(cmd.Context())
			if err != nil {
				return err
			}
			tracks, err := store.AllTracks(cmd.Context())
			if err != nil {
				return err
			}
			var totalBytes int64
			for _, track := range tracks {
				totalBytes += track.FileSize
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Artists", "Albums", "Tracks", "Total size"},
				[][]string{{
					strconv.Itoa(len(artists)),
					strconv.Itoa(len(albums)),
					strconv.Itoa(len(tracks)),
					humanize.Bytes(uint64(totalBytes)),
				}}, 0, 1, 2, 3))
			return nil
		},
	}
}

func toolStatusKind(status deps.Status) statusKind {
	if status.Available {
		return statusOK
	}
	if status.Optional {
		return statusWarn
	}
	return statusError
}

func toolStatusDetail(status deps.Status) string {
	if status.Detail != "" {
		return status.Detail
	}
	return status.Command
}
