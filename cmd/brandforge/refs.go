package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"brandforge/internal/config"
	"brandforge/internal/refindex"
)

// newRefsCommand creates the refs subcommand group.
func newRefsCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs",
		Short: "Inspect the reference library",
	}
	cmd.AddCommand(newRefsValidateCommand(flags))
	return cmd
}

// newRefsValidateCommand loads the reference library the way a run
// would and reports what it found. Styleguides that violate the layout
// contract fail the load, so a clean exit here means a run will not
// trip over the library.
func newRefsValidateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the reference index and styleguide contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.WithConfigFile(flags.configFile))
			if err != nil {
				return err
			}

			idx, err := refindex.Load(cfg.ReferenceDir, styleDirFor(cfg.ReferenceDir), nil)
			if err != nil {
				fmt.Printf("%s %v\n", red("invalid:"), err)
				return err
			}

			fmt.Printf("%s Reference library at %s\n", green("=>"), cfg.ReferenceDir)
			fmt.Printf("   %-18s %d references, %d styleguides\n",
				"logos", idx.Count(refindex.Logos), idx.GuideCount(refindex.Logos))
			fmt.Printf("   %-18s %d references, %d styleguides\n",
				"patterns", idx.Count(refindex.Patterns), idx.GuideCount(refindex.Patterns))

			if missing := idx.MissingFiles(); len(missing) > 0 {
				fmt.Printf("\n%s %d index entries point at missing files:\n", yellow("!"), len(missing))
				for _, path := range missing {
					fmt.Printf("   %s\n", gray(path))
				}
			}
			return nil
		},
	}
}
