package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Color definitions shared across commands.
var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// isTTY checks if the current environment has a TTY available
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// rootFlags carries the persistent flags every subcommand reads.
type rootFlags struct {
	configFile string
	verbose    bool
	noColor    bool
}

// NewRootCommand creates the root cobra command
func NewRootCommand(ctx context.Context) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "brandforge",
		Short: "AI brand identity pipeline",
		Long: `brandforge turns a brand brief into four creative directions with
logos, then builds the full asset kit for the direction you pick:
patterns, backgrounds, palette and shade boards, product mockups,
and launch social posts.

EXAMPLES:
  brandforge run brief.yaml                 # Full pipeline, interactive review
  brandforge run brief.yaml --select 2      # Skip the review, take option 2
  brandforge assets outputs/20250114_120301 --option 1 --brief brief.yaml
  brandforge refs validate                  # Check the reference library
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Config file (default: ./brandforge.yaml, ~/.brandforge/brandforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if flags.noColor || !isTTY() {
			color.NoColor = true
		}
	}

	rootCmd.AddCommand(newRunCommand(ctx, flags))
	rootCmd.AddCommand(newAssetsCommand(ctx, flags))
	rootCmd.AddCommand(newRefsCommand(flags))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
