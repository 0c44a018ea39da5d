package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"banshee/internal/codec"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "formats",
		Short:       "List supported encode formats",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(codec.Formats()))
			for _, format := range codec.Formats() {
				kind, engine := "audio", "ffmpeg"
				if !format.Audio() {
					kind, engine = "video", "drapto"
				}
				rows = append(rows, []string{format.String(), format.Extension(), kind, engine})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Format", "Extension", "Kind", "Engine"},
				rows,
				nil,
			))
			return nil
		},
	}
}
