package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"brandforge/internal/brand"
)

// Review block styles. The card border hugs its longest line so asset
// paths never wrap mid-path.
var (
	styleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	styleCardTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleCardSlot  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleCardLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleCardQuote = lipgloss.NewStyle().Italic(true)
)

// renderDirectionsSummary renders the review block the user reads
// before choosing a direction: one card per option with its palette,
// type stack, logo recipe, and copy.
func renderDirectionsSummary(result *brand.LogosPhaseResult) string {
	var b strings.Builder
	if s := strings.TrimSpace(result.Directions.BrandSummary); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	for i := range result.Directions.Directions {
		d := &result.Directions.Directions[i]
		b.WriteString(renderDirectionCard(d, result.AssetsByOption[d.OptionNumber]))
		b.WriteString("\n")
	}
	return b.String()
}

func renderDirectionCard(d *brand.BrandDirection, assets brand.DirectionAssets) string {
	title := fmt.Sprintf("%s %s",
		styleCardTitle.Render(fmt.Sprintf("Option %d: %s", d.OptionNumber, d.DirectionName)),
		styleCardSlot.Render("("+d.OptionType+")"))

	lines := []string{
		title,
		"",
		styleCardLabel.Render("Palette    ") + swatchLine(d.Colors),
		styleCardLabel.Render("Type       ") + d.TypographyPrimary + " / " + d.TypographySecondary,
		styleCardLabel.Render("Logo       ") + d.LogoSpec.LogoType + ", " + d.LogoSpec.Form,
		styleCardLabel.Render("Style      ") + d.GraphicStyle,
		styleCardLabel.Render("Tagline    ") + styleCardQuote.Render(d.Tagline),
	}
	if assets.Logo != "" {
		lines = append(lines, styleCardLabel.Render("Logo file  ")+assets.Logo)
	}
	return styleCard.Render(strings.Join(lines, "\n"))
}

// swatchLine renders each palette color as a colored block next to its
// hex so the terminal preview approximates the palette board.
func swatchLine(colors []brand.ColorSwatch) string {
	parts := make([]string, 0, len(colors))
	for _, c := range colors {
		block := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex)).Render("██")
		parts = append(parts, block+" "+c.Hex)
	}
	return strings.Join(parts, "  ")
}
