package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"brandforge/internal/brand"
)

// newRunCommand creates the run subcommand: the full pipeline with the
// review gate between the logos phase and the assets phase.
func newRunCommand(ctx context.Context, flags *rootFlags) *cobra.Command {
	var selectOption int
	var skipAssets bool

	cmd := &cobra.Command{
		Use:   "run <brief.yaml|brief.json>",
		Short: "Run the identity pipeline from a brief",
		Long: `Run the full pipeline: four creative directions with logos, an
interactive review, then the complete asset kit for the direction you
choose. Use --select to skip the review in scripts; without a TTY the
command stops after the logos phase and prints how to resume.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			brief, err := brand.LoadBrief(args[0])
			if err != nil {
				return err
			}

			container, err := buildContainer(flags)
			if err != nil {
				return err
			}
			defer container.Close()

			return runPipeline(ctx, container, brief, selectOption, skipAssets, flags.verbose)
		},
	}

	cmd.Flags().IntVar(&selectOption, "select", 0, "Skip the review and build assets for this option (1-4)")
	cmd.Flags().BoolVar(&skipAssets, "skip-assets", false, "Stop after the logos phase")
	return cmd
}

func runPipeline(ctx context.Context, container *Container, brief *brand.Brief, selectOption int, skipAssets, verbose bool) error {
	if selectOption != 0 && (selectOption < 1 || selectOption > 4) {
		return fmt.Errorf("--select must be between 1 and 4, got %d", selectOption)
	}

	fmt.Printf("%s %s\n\n", bold("brandforge"), gray("brief: "+brief.BrandName))
	printer := newProgressPrinter(verbose)

	result, err := container.Runner.RunLogosPhase(ctx, brief, printer.onEvent)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(renderDirectionsSummary(result))
	fmt.Printf("%s %s\n", gray("Run directory:"), result.RunDir)

	if skipAssets {
		return nil
	}

	chosen := selectOption
	if chosen == 0 {
		if !isTTY() {
			fmt.Printf("\n%s No TTY for the review. Resume with:\n  %s\n",
				yellow("!"), cyan(fmt.Sprintf("brandforge assets %s --option <N> --brief <brief>", result.RunDir)))
			return nil
		}
		result, chosen, err = reviewLoop(ctx, container, result, printer)
		if err != nil {
			return err
		}
		if chosen == 0 {
			fmt.Printf("\nStopping here. Resume with:\n  %s\n",
				cyan(fmt.Sprintf("brandforge assets %s --option <N> --brief <brief>", result.RunDir)))
			return nil
		}
	}

	dir, ok := result.Directions.ByOption(chosen)
	if !ok {
		return fmt.Errorf("no direction with option %d", chosen)
	}
	fmt.Printf("\n%s Building the full kit for %s\n\n",
		blue("=>"), bold(fmt.Sprintf("option %d: %s", chosen, dir.DirectionName)))

	assetsResult, err := container.Runner.RunAssetsPhase(ctx, chosen, result.RunDir, brief, printer.onEvent)
	if err != nil {
		return err
	}

	printAssetsSummary(assetsResult)
	return nil
}

// reviewLoop is the interactive gate between the phases. The user can
// hand the directions back to the director with feedback any number of
// times before committing to an option.
func reviewLoop(ctx context.Context, container *Container, result *brand.LogosPhaseResult, printer *progressPrinter) (*brand.LogosPhaseResult, int, error) {
	for {
		items := make([]string, 0, 6)
		for i := range result.Directions.Directions {
			d := &result.Directions.Directions[i]
			items = append(items, fmt.Sprintf("Build assets for option %d: %s", d.OptionNumber, d.DirectionName))
		}
		items = append(items, "Refine the directions with feedback", "Stop here")

		sel := promptui.Select{
			Label:    "Pick a direction",
			Items:    items,
			Size:     len(items),
			HideHelp: true,
		}
		idx, _, err := sel.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return result, 0, nil
			}
			return result, 0, err
		}

		switch {
		case idx < len(result.Directions.Directions):
			return result, result.Directions.Directions[idx].OptionNumber, nil
		case idx == len(items)-1:
			return result, 0, nil
		}

		feedback, err := promptFeedback()
		if err != nil {
			return result, 0, err
		}
		if feedback == "" {
			continue
		}

		fmt.Println()
		refined, err := container.Runner.RefineDirections(ctx, result, feedback, printer.onEvent)
		if err != nil {
			fmt.Printf("%s Refinement failed: %v\n", red("!"), err)
			continue
		}
		result = refined
		fmt.Println()
		fmt.Print(renderDirectionsSummary(result))
	}
}

func promptFeedback() (string, error) {
	pr := promptui.Prompt{
		Label: "Feedback for the director",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("feedback must not be empty")
			}
			return nil
		},
	}
	feedback, err := pr.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(feedback), nil
}

func printAssetsSummary(result *brand.AssetsPhaseResult) {
	fmt.Println()
	fmt.Printf("%s Asset kit for option %d\n", green("=>"), result.OptionNumber)
	printAssetLine("Logo", result.Assets.Logo)
	printAssetLine("Logo (white)", result.Assets.LogoWhite)
	printAssetLine("Logo (black)", result.Assets.LogoBlack)
	printAssetLine("Logo (transparent)", result.Assets.LogoTransparent)
	printAssetLine("Pattern", result.Assets.Pattern)
	printAssetLine("Background", result.Assets.Background)
	printAssetLine("Palette board", result.Assets.PalettePNG)
	printAssetLine("Shade scales", result.Assets.ShadesPNG)
	fmt.Printf("   %-22s %d files\n", "Mockups", len(result.Mockups))
	fmt.Printf("   %-22s %d files\n", "Social posts", len(result.SocialPosts))
}

func printAssetLine(label, path string) {
	if path == "" {
		fmt.Printf("   %-22s %s\n", label, gray("missing"))
		return
	}
	fmt.Printf("   %-22s %s\n", label, path)
}
