package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"banshee/internal/library"
)

type trackJSON struct {
	Path            string  `json:"path"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist,omitempty"`
	Album           string  `json:"album,omitempty"`
	Format          string  `json:"format,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	SizeBytes       int64   `json:"size_bytes"`
	ImportedAt      string  `json:"imported_at"`
}

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect the media library",
	}
	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryRemoveCommand(ctx))
	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var filter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				tracks, err := store.ListTracks(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if asJSON {
					items := make([]trackJSON, 0, len(tracks))
					for _, track := range tracks {
						items = append(items, trackJSON{
							Path:            track.Path,
							Title:           track.Title,
							Artist:          track.Artist,
							Album:           track.Album,
							Format:          track.Format,
							DurationSeconds: track.DurationSeconds,
							SizeBytes:       track.SizeBytes,
							ImportedAt:      track.ImportedAt.Format(time.RFC3339),
						})
					}
					return writeJSON(cmd, items)
				}

				out := cmd.OutOrStdout()
				if len(tracks) == 0 {
					fmt.Fprintln(out, "Library is empty")
					return nil
				}
				rows := make([][]string, 0, len(tracks))
				for _, track := range tracks {
					rows = append(rows, []string{
						fallback(track.Artist, "-"),
						fallback(track.Album, "-"),
						track.Title,
						fallback(track.Format, "-"),
						formatTrackDuration(track.Duration()),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Artist", "Album", "Title", "Format", "Length"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				fmt.Fprintf(out, "%d tracks\n", len(tracks))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only show tracks whose title, artist or album contains this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newLibraryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>...",
		Short: "Remove tracks from the library without touching the files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				out := cmd.OutOrStdout()
				for _, path := range args {
					if err := store.RemoveTrack(cmd.Context(), path); err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %s\n", path)
				}
				return nil
			})
		},
	}
}

func formatTrackDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	total := int(d.Round(time.Second).Seconds())
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func fallback(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

func formatCount(current, total int64) string {
	if total <= 0 {
		return "-"
	}
	return strconv.FormatInt(current, 10) + "/" + strconv.FormatInt(total, 10)
}
