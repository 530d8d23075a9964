package mockup

import (
	"fmt"
	"strings"

	"brandforge/internal/brand"
)

const promptLegend = `You are a professional brand identity mockup renderer.
Your task: take a reference mockup photograph that has colored placeholder zones and reconstruct it with a real brand identity applied.

Placeholder color legend:
- Magenta (#FF00FF) = logo placement zone
- Yellow (#FFFF00) = brand color surface / imagery zone
- Cyan (#00FFFF) = brand name / text zone

Rules:
- Replace ALL placeholder zones with the brand identity described below.
- Keep all non-placeholder areas IDENTICAL: surroundings, shadows, materials, lighting, perspective, and scene composition must not change.
- Output a single photorealistic image with the same dimensions and crop as the reference.
- No additional text or words except in designated cyan text zones.`

const promptInstructions = `Step-by-step instructions:
1. Analyse the reference mockup photograph and locate every placeholder zone.
2. Apply the brand primary color to all YELLOW zones.
3. Place the brand logo in all MAGENTA zones, rendered naturally on the material (screen-print texture on fabric, etched look on acrylic, and so on).
4. Render the brand name text in all CYAN zones with appropriate typography.
5. Output the final photorealistic mockup image.`

// reconstructPrompt builds the full text side of the multimodal
// reconstruction call. logoVariant is the attached logo file's variant
// name, or empty when no usable logo file exists; the attachment
// manifest tracks what actually rides along.
func reconstructPrompt(m Mockup, brandName string, dir *brand.BrandDirection, logoVariant string) string {
	var b strings.Builder
	b.WriteString(promptLegend)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Brand name: %s\n", brandName)
	fmt.Fprintf(&b, "Primary color: %s\n", primaryHex(dir))
	fmt.Fprintf(&b, "Color palette: %s\n", paletteSummary(dir))
	fmt.Fprintf(&b, "Brand mood / direction: %s\n\n", dir.DirectionName)

	fmt.Fprintf(&b, "Mockup scene: %s\n", m.Scene)
	fmt.Fprintf(&b, "Placeholder zones: %s\n", m.Zone)
	fmt.Fprintf(&b, "Logo placement: %s\n", fallback(m.Placement, "centered in the placeholder zone"))
	fmt.Fprintf(&b, "Logo color: %s\n", fallback(m.LogoColor, "contrasting with background"))
	fmt.Fprintf(&b, "Logo size: %s\n", fallback(m.LogoSize, "60% of the zone"))
	fmt.Fprintf(&b, "Material / rendering: %s\n", fallback(m.Material, "standard print"))
	fmt.Fprintf(&b, "Visual style: %s\n\n", fallback(m.Style, "professional, clean"))

	b.WriteString(promptInstructions)
	b.WriteString("\n\n## ATTACHED IMAGES (in order)\n")
	b.WriteString("1. The reference mockup photograph with placeholder zones. Reconstruct this exact scene.\n")
	if logoVariant != "" {
		fmt.Fprintf(&b, "2. The brand logo mark (%s). Integrate it into every magenta zone, rendered naturally on the material.\n", logoVariant)
	}
	b.WriteString("\nOutput the reconstructed mockup photograph with the brand identity fully applied. Image only, no captions.")
	return b.String()
}

// primaryHex finds the palette's primary swatch, falling back to the
// first color, then to a neutral dark.
func primaryHex(dir *brand.BrandDirection) string {
	for _, c := range dir.Colors {
		if c.Role == brand.RolePrimary {
			return c.Hex
		}
	}
	if len(dir.Colors) > 0 {
		return dir.Colors[0].Hex
	}
	return "#333333"
}

// paletteSummary joins up to the first three palette hexes.
func paletteSummary(dir *brand.BrandDirection) string {
	if len(dir.Colors) == 0 {
		return primaryHex(dir)
	}
	n := len(dir.Colors)
	if n > 3 {
		n = 3
	}
	hexes := make([]string, 0, n)
	for _, c := range dir.Colors[:n] {
		hexes = append(hexes, c.Hex)
	}
	return strings.Join(hexes, ", ")
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
