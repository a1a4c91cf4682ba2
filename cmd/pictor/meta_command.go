package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"pictor/internal/imagefile"
	"pictor/internal/pngmeta"
	"pictor/internal/xmpmeta"
)

func newMetaCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "meta <file>",
		Short: "Show the embedded generation metadata and rating of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			format := imagefile.Sniff(data)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "File:   %s\n", path)
			fmt.Fprintf(out, "Format: %s\n", format)

			fmt.Fprintf(out, "Rating: %d\n", xmpmeta.ReadRating(data, format))

			meta := pngmeta.Extract(data, format)
			if meta == nil {
				fmt.Fprintln(out, "No generation metadata.")
				return nil
			}

			if len(meta.Prompt) > 0 {
				fmt.Fprintf(out, "Prompt: %s\n", formatTags(meta.Prompt))
			}
			if len(meta.NegativePrompt) > 0 {
				fmt.Fprintf(out, "Negative prompt: %s\n", formatTags(meta.NegativePrompt))
			}
			if len(meta.Fields) > 0 {
				keys := make([]string, 0, len(meta.Fields))
				for key := range meta.Fields {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					fmt.Fprintf(out, "%s: %s\n", key, meta.Fields[key])
				}
			}
			return nil
		},
	}
}

func formatTags(tags []pngmeta.Tag) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag.HasWeight {
			parts = append(parts, fmt.Sprintf("%s (%.2g)", tag.Name, tag.Weight))
			continue
		}
		parts = append(parts, tag.Name)
	}
	return strings.Join(parts, ", ")
}
