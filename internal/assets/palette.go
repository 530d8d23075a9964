package assets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"brandforge/internal/brand"
	"brandforge/internal/colorspace"
	"brandforge/internal/model"
)

// Palette pairs closer than this deltaE get a warning; the operator
// decides whether the direction meant it.
const nearDuplicateDeltaE = 5.0

// roleRank orders palette board rows: working colors first, neutrals
// last, matching how designers read a color system.
var roleRank = map[string]int{
	brand.RolePrimary:      0,
	brand.RoleSecondary:    1,
	brand.RoleAccent:       2,
	brand.RoleSupport:      3,
	brand.RoleNeutralDark:  4,
	brand.RoleNeutralLight: 5,
}

// enrichPalette names the direction's colors and nudges apart any
// near-duplicates through a structured call. Every failure path falls
// back to the deterministic naming, so the palette board always
// renders.
func (g *Generator) enrichPalette(ctx context.Context, dir *brand.BrandDirection, tags []string) []brand.ColorSwatch {
	if g.text == nil {
		return g.fallbackPalette(dir)
	}

	prompt := paletteEnrichmentPrompt(dir, tags)
	call := func(ctx context.Context, p string) (*model.TextResponse, error) {
		return g.text.Complete(ctx, model.TextRequest{
			UserPrompt: p,
			JSONOutput: true,
		})
	}
	enriched, err := model.Structured[[]brand.ColorSwatch](ctx, call, prompt,
		model.StructuredOptions{RepairAttempts: g.repairAttempts, Logger: g.logger},
		func(out *[]brand.ColorSwatch) error { return validateEnrichedPalette(dir.Colors, out) })
	if err != nil {
		g.logger.Warn("palette enrichment failed, using deterministic names: %v", err)
		return g.fallbackPalette(dir)
	}

	colors := finishPalette(*enriched)
	g.warnNearDuplicates(colors)
	return colors
}

func paletteEnrichmentPrompt(dir *brand.BrandDirection, tags []string) string {
	var b strings.Builder
	b.WriteString("You refine brand color palettes for production use.\n\n")
	fmt.Fprintf(&b, "## CURRENT PALETTE (%q)\n", dir.DirectionName)
	for _, c := range dir.Colors {
		fmt.Fprintf(&b, "- %s: %s", c.Role, c.Hex)
		if c.Name != "" {
			fmt.Fprintf(&b, " (%s)", c.Name)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n## DIRECTION\n")
	fmt.Fprintf(&b, "Graphic style: %s\n", dir.GraphicStyle)
	if len(tags) > 0 {
		fmt.Fprintf(&b, "Mood tags: %s\n", strings.Join(tags, ", "))
	}
	b.WriteString(`
## TASK
Return the same palette with:
1. A short evocative name for every color, 2-3 words in title case.
2. Hex values nudged ONLY where two colors are nearly indistinguishable; push those apart while keeping each color's role and intent.
Keep the same number of colors and the same roles.

Return ONLY a JSON array, one object per color:
[{"hex": "#2D6A4F", "role": "primary", "name": "Deep Forest"}]`)
	return b.String()
}

// validateEnrichedPalette checks the structured response against the
// source palette: same size, same set of roles, every hex parsable.
// Hex values are normalized in place.
func validateEnrichedPalette(source []brand.ColorSwatch, out *[]brand.ColorSwatch) error {
	got := *out
	if len(got) != len(source) {
		return fmt.Errorf("palette has %d colors, want %d", len(got), len(source))
	}
	want := map[string]int{}
	for _, c := range source {
		want[c.Role]++
	}
	for i := range got {
		role := strings.TrimSpace(got[i].Role)
		if want[role] == 0 {
			return fmt.Errorf("color %d has unexpected role %q", i+1, got[i].Role)
		}
		want[role]--
		got[i].Role = role

		hex, err := colorspace.NormalizeHex(got[i].Hex)
		if err != nil {
			return fmt.Errorf("color %d: %w", i+1, err)
		}
		got[i].Hex = hex
	}
	return nil
}

// fallbackPalette copies the direction's palette, normalizing hex and
// filling missing names deterministically.
func (g *Generator) fallbackPalette(dir *brand.BrandDirection) []brand.ColorSwatch {
	colors := make([]brand.ColorSwatch, len(dir.Colors))
	copy(colors, dir.Colors)
	for i := range colors {
		if hex, err := colorspace.NormalizeHex(colors[i].Hex); err == nil {
			colors[i].Hex = hex
		}
	}
	colors = finishPalette(colors)
	g.warnNearDuplicates(colors)
	return colors
}

// finishPalette fills any still-empty names and sorts by role rank.
func finishPalette(colors []brand.ColorSwatch) []brand.ColorSwatch {
	for i := range colors {
		if strings.TrimSpace(colors[i].Name) == "" {
			colors[i].Name = colorspace.DescriptiveName(colors[i].Hex, i)
		}
	}
	sort.SliceStable(colors, func(i, j int) bool {
		ri, ok := roleRank[colors[i].Role]
		if !ok {
			ri = len(roleRank)
		}
		rj, ok := roleRank[colors[j].Role]
		if !ok {
			rj = len(roleRank)
		}
		return ri < rj
	})
	return colors
}

func (g *Generator) warnNearDuplicates(colors []brand.ColorSwatch) {
	for i := 0; i < len(colors); i++ {
		for j := i + 1; j < len(colors); j++ {
			d, err := colorspace.DeltaEHex(colors[i].Hex, colors[j].Hex)
			if err != nil || d >= nearDuplicateDeltaE {
				continue
			}
			g.logger.Warn("palette: %s %s and %s %s are nearly identical (deltaE %.1f)",
				colors[i].Role, colors[i].Hex, colors[j].Role, colors[j].Hex, d)
		}
	}
}
