package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"brandforge/internal/brand"
)

// newAssetsCommand creates the assets subcommand: phase two on its
// own, resuming from the directions a previous run left on disk.
func newAssetsCommand(ctx context.Context, flags *rootFlags) *cobra.Command {
	var option int
	var briefPath string

	cmd := &cobra.Command{
		Use:   "assets <run-dir>",
		Short: "Build the full asset kit for a reviewed direction",
		Long: `Build the asset kit, mockups, and social posts for one direction of
an earlier run. The run directory must hold the directions.json a
'brandforge run' wrote.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if option < 1 || option > 4 {
				return fmt.Errorf("--option must be between 1 and 4, got %d", option)
			}
			brief, err := brand.LoadBrief(briefPath)
			if err != nil {
				return err
			}

			container, err := buildContainer(flags)
			if err != nil {
				return err
			}
			defer container.Close()

			fmt.Printf("%s %s\n\n", bold("brandforge"), gray("resuming run: "+args[0]))
			printer := newProgressPrinter(flags.verbose)
			result, err := container.Runner.RunAssetsPhase(ctx, option, args[0], brief, printer.onEvent)
			if err != nil {
				return err
			}
			printAssetsSummary(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&option, "option", 0, "Direction to build (1-4)")
	cmd.Flags().StringVar(&briefPath, "brief", "", "Path to the brief the run started from")
	_ = cmd.MarkFlagRequired("option")
	_ = cmd.MarkFlagRequired("brief")
	return cmd
}
