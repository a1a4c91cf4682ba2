package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pictor/internal/fileutil"
)

func newCpCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cp <file> <directory>",
		Short: "Copy an image to a directory with integrity verification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			dest, err := fileutil.Export(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied to %s\n", dest)
			return nil
		},
	}
}
