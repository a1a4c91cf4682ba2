package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pictor/internal/session"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [directory]",
		Short: "Watch a directory and log settled changes until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			sess, err := session.New(cfg, logger)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.Open(dir); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := sess.ToggleWatch(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (session %s), ctrl-c to stop\n", dir, sess.ID())

			<-runCtx.Done()
			if err := sess.WatchError(); err != nil {
				return err
			}
			return nil
		},
	}
}
