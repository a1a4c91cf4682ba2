package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pictor/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.DefaultPath()
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			resolved, err := config.ExpandPath(target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote sample config to %s\n", resolved)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "output", "o", "", "Destination path (default "+config.DefaultPath()+")")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "configuration is valid")
			fmt.Fprintf(out, "  log level:         %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "  log format:        %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "  debounce:          %s\n", cfg.Debounce())
			fmt.Fprintf(out, "  self event window: %s\n", cfg.SelfEventWindow())
			fmt.Fprintf(out, "  cache capacity:    %d\n", cfg.Viewer.CacheCapacity)
			return nil
		},
	}
}
