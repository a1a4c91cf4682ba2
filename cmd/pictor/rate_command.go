package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pictor/internal/xmpmeta"
)

func newRateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <file> <0-5>",
		Short: "Set the embedded rating of an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating must be an integer 0-5: %w", err)
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			store := xmpmeta.NewStore(logger)
			if err := store.Write(args[0], rating); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rated %s %d\n", args[0], rating)
			return nil
		},
	}
}
