package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pictor/internal/library"
	"pictor/internal/xmpmeta"
)

func newLsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [directory]",
		Short: "List the images in a directory with their ratings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			index, err := library.Build(dir)
			if err != nil {
				return err
			}
			if index.Len() == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no images in %s\n", dir)
				return nil
			}

			store := xmpmeta.NewStore(nil)
			rows := make([][]string, 0, index.Len())
			for _, entry := range index.Entries() {
				rating := "-"
				if r, err := store.Read(entry.Path); err == nil && r > 0 {
					rating = strings.Repeat("*", r)
				}
				rows = append(rows, []string{
					entry.Name,
					entry.Format.String(),
					entry.ModTime.Format("2006-01-02 15:04"),
					rating,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Name", "Format", "Modified", "Rating"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%s images\n", strconv.Itoa(index.Len()))
			return nil
		},
	}
}
