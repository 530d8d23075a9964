// Package assets renders the per-direction asset set: logos during
// the first phase, then pattern, background, palette boards, shade
// scales, and logo variants once the user has picked a direction.
// Model failures degrade to labeled placeholder files so a run always
// leaves a complete directory behind.
package assets

import (
	"fmt"
	"regexp"
	"strings"

	"brandforge/internal/brand"
)

// fontNames are typeface names stripped from typography treatments
// before prompt injection. Image models render named fonts poorly and
// tend to draw the font name as literal text instead.
var fontNames = []string{
	"Futura", "Helvetica", "Arial", "Playfair Display", "Playfair",
	"Merriweather", "Lora", "Open Sans", "Roboto", "Canela", "Graphik",
	"Neue Haas Grotesk", "IBM Plex", "Garamond", "Didot", "Bodoni",
	"Gotham", "Proxima Nova", "Montserrat", "Inter", "DM Sans",
	"Work Sans", "Poppins", "Raleway",
}

// hardClicheAvoids are banned from every logo prompt regardless of
// direction. They are the motifs that make a mark look templated.
var hardClicheAvoids = []string{
	"coffee cup", "mug", "coffee bean", "steam", "fork", "spoon",
	"chef hat", "lightbulb", "gear", "circuit board", "upward arrow",
	"dollar sign", "stethoscope", "hanger", "house outline", "location pin",
}

// renderAvoids ban rendering treatments that break the monochrome
// vector contract.
var renderAvoids = []string{
	"gradient", "drop shadow", "3D effect", "photograph", "multiple colors",
}

var fillDescriptions = map[string]string{
	"solid_fill":               "solid flat fill",
	"outline_only":             "outline only, %s stroke, transparent interior",
	"fill_with_outline_detail": "solid fill with %s outline details",
}

var (
	fontPhraseRe = regexp.MustCompile(`(?:similar to|inspired by|based on|reminiscent of|in the style of)\s+[A-Z][a-zA-Z\s]+(?:,|\.|\b)`)
	fontNameRes  = compileFontNameRes()

	lettermarkLetterRe = regexp.MustCompile(`(?i)((?:uppercase|letter|capital)\s+)([A-Za-z])\b`)

	pxDimensionRe = regexp.MustCompile(`\b\d+(?:×|x)\d+\s*px\b`)
	pxRe          = regexp.MustCompile(`\b\d+px\b`)
	ptRe          = regexp.MustCompile(`\b\d+pt\b`)
	doubleCommaRe = regexp.MustCompile(`,\s*,`)
	commaDotRe    = regexp.MustCompile(`,\s*\.`)
	multiSpaceRe  = regexp.MustCompile(`[ \t]{2,}`)
	trailingWSRe  = regexp.MustCompile(`(?m)[ \t]+$`)
)

func compileFontNameRes() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(fontNames))
	for i, name := range fontNames {
		res[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	}
	return res
}

// LogoPrompt renders a logo spec as the keyword-stack prompt the image
// models respond to best. When dnaConstraints is non-empty the style
// DNA clause leads the stack and replaces the spec's own render style,
// so the reference image aesthetic wins over the director's wording.
func LogoPrompt(spec brand.LogoSpec, brandName, dnaConstraints string) string {
	var parts []string

	if dnaConstraints != "" {
		parts = append(parts, "[STYLE DNA]: MUST MATCH: "+dnaConstraints)
	}

	parts = append(parts, logoTypeLine(spec.LogoType, brandName))
	parts = append(parts, "[FORM]: "+logoForm(spec, brandName))
	parts = append(parts, "[COLOR]: "+colorLine(spec))

	if AllowsText(spec.LogoType) && spec.LogoType != "lettermark" {
		if t := cleanTypography(spec.TypographyTreatment); t != "" {
			parts = append(parts, "[TYPOGRAPHY]: "+t)
		}
	}

	composition := spec.Composition
	if strings.TrimSpace(composition) == "" {
		composition = "centered, 20% padding, white background"
	}
	if dnaConstraints != "" {
		parts = append(parts, "[RENDER]: "+composition)
	} else {
		parts = append(parts, "[RENDER]: "+spec.RenderStyle+", "+composition)
	}

	metaphor := strings.TrimSpace(spec.Metaphor)
	if m := strings.ToLower(metaphor); m != "" && m != "abstract" && m != "n/a" {
		parts = append(parts, "[METAPHOR]: "+metaphor)
	}

	parts = append(parts, "[FORBIDDEN]: "+strings.Join(forbiddenItems(spec), ", "))

	return stripDimensions(strings.Join(parts, "\n"))
}

// AllowsText reports whether a logo type legitimately contains
// letterforms. Symbol and abstract marks must render without any.
func AllowsText(logoType string) bool {
	switch logoType {
	case "logotype", "combination", "lettermark":
		return true
	}
	return false
}

func logoTypeLine(logoType, brandName string) string {
	switch logoType {
	case "logotype":
		return fmt.Sprintf("[LOGO TYPE]: brand logotype, '%s' as pure typography", brandName)
	case "combination":
		return fmt.Sprintf("[LOGO TYPE]: combination mark, symbol + brand name '%s'", brandName)
	case "lettermark":
		return "[LOGO TYPE]: lettermark logo, single letter mark"
	default:
		label := strings.ReplaceAll(logoType, "_", " ")
		return fmt.Sprintf("[LOGO TYPE]: %s, standalone mark, no text", label)
	}
}

// logoForm returns the form description, patched for lettermarks so
// the letter being drawn is always the brand's first initial. Models
// otherwise pick whichever letter the form text happens to mention.
func logoForm(spec brand.LogoSpec, brandName string) string {
	form := spec.Form
	if spec.LogoType != "lettermark" {
		return form
	}
	name := strings.TrimSpace(brandName)
	if name == "" {
		return form
	}
	initial := strings.ToUpper(name[:1])
	if strings.Contains(strings.ToUpper(form), initial) {
		return form
	}
	if loc := lettermarkLetterRe.FindStringSubmatchIndex(form); loc != nil {
		form = form[:loc[4]] + initial + form[loc[5]:]
	}
	if !strings.Contains(strings.ToUpper(form), initial) {
		form = "uppercase " + initial + ", " + form
	}
	return form
}

func colorLine(spec brand.LogoSpec) string {
	stroke := spec.StrokeWeight
	if stroke == "" {
		stroke = "medium"
	}
	fill, ok := fillDescriptions[spec.FillStyle]
	if !ok {
		fill = spec.FillStyle
	} else if strings.Contains(fill, "%s") {
		fill = fmt.Sprintf(fill, stroke)
	}
	return fmt.Sprintf("%s, %s %s, monochrome single-color only", fill, spec.ColorName, spec.ColorHex)
}

// cleanTypography strips named typefaces and "in the style of X"
// phrases from a typography treatment, keeping only the descriptive
// vocabulary the model can actually act on.
func cleanTypography(treatment string) string {
	t := strings.TrimSpace(treatment)
	if t == "" || strings.EqualFold(t, "N/A") {
		return ""
	}
	t = fontPhraseRe.ReplaceAllString(t, "")
	for _, re := range fontNameRes {
		t = re.ReplaceAllString(t, "")
	}
	t = doubleCommaRe.ReplaceAllString(t, ",")
	t = strings.TrimSpace(strings.Trim(strings.TrimSpace(t), ","))
	if t == "" || strings.EqualFold(t, "N/A") {
		return ""
	}
	return t
}

func forbiddenItems(spec brand.LogoSpec) []string {
	var items []string
	for _, a := range spec.Avoid {
		if a = strings.TrimSpace(a); a != "" {
			items = append(items, a)
		}
	}
	if !AllowsText(spec.LogoType) {
		joined := strings.ToLower(strings.Join(items, " "))
		var bans []string
		for _, ban := range []string{"text", "letterforms", "words"} {
			if !strings.Contains(joined, ban) {
				bans = append(bans, ban)
			}
		}
		items = append(bans, items...)
	}
	items = appendMissing(items, hardClicheAvoids...)
	items = appendMissing(items, renderAvoids...)
	return items
}

// appendMissing appends each candidate not already mentioned anywhere
// in the existing items. Substring matching keeps "no gradients" from
// gaining a redundant "gradient" entry.
func appendMissing(items []string, candidates ...string) []string {
	joined := strings.ToLower(strings.Join(items, " "))
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if !strings.Contains(joined, lc) {
			items = append(items, c)
			joined += " " + lc
		}
	}
	return items
}

// stripDimensions removes pixel and point measurements the director
// sometimes writes into specs. Image models render "800px" as literal
// text on the canvas.
func stripDimensions(prompt string) string {
	prompt = pxDimensionRe.ReplaceAllString(prompt, "")
	prompt = pxRe.ReplaceAllString(prompt, "")
	prompt = ptRe.ReplaceAllString(prompt, "")
	prompt = doubleCommaRe.ReplaceAllString(prompt, ",")
	prompt = commaDotRe.ReplaceAllString(prompt, ".")
	prompt = multiSpaceRe.ReplaceAllString(prompt, " ")
	prompt = trailingWSRe.ReplaceAllString(prompt, "")
	return strings.TrimSpace(prompt)
}

// PatternPrompt renders a pattern spec as a keyword-stack prompt for a
// seamless tile.
func PatternPrompt(spec brand.PatternSpec) string {
	var parts []string

	motif := "[MOTIF]: seamless repeating pattern tile, " + spec.Motif
	if spec.DensityScale != "" {
		motif += ", density " + spec.DensityScale
	}
	parts = append(parts, motif)

	colorPart := fmt.Sprintf("[COLOR]: primary motif %s, background %s", spec.PrimaryColorHex, spec.BackgroundColorHex)
	if sec := strings.ToLower(strings.TrimSpace(spec.SecondaryColorHex)); sec != "" && sec != "none" {
		colorPart += ", secondary accent " + spec.SecondaryColorHex
	}
	if op := strings.TrimSpace(spec.OpacityNotes); op != "" && !strings.EqualFold(op, "solid") {
		colorPart += ", " + op
	}
	parts = append(parts, colorPart)

	var render []string
	if spec.RenderStyle != "" {
		render = append(render, spec.RenderStyle)
	}
	if spec.Mood != "" {
		render = append(render, spec.Mood)
	}
	if len(render) > 0 {
		parts = append(parts, "[RENDER]: "+strings.Join(render, ", "))
	}

	parts = append(parts, "[TILING]: all 4 edges align perfectly, seamless infinite repeat, professional surface/textile quality")

	if avoid := joinAvoid(spec.Avoid); avoid != "" {
		parts = append(parts, "[FORBIDDEN]: "+avoid)
	}

	return stripDimensions(strings.Join(parts, "\n"))
}

var sceneQualityLabels = map[string]string{
	"environmental_photo": "photorealistic cinematic photograph",
	"abstract_field":      "high-end abstract digital art",
	"macro_texture":       "close-up macro texture photograph",
	"digital_art":         "premium digital illustration",
}

// BackgroundPrompt renders a background spec as prose. Backgrounds are
// scenes rather than marks, and the photographic models follow
// sentences better than keyword stacks.
func BackgroundPrompt(spec brand.BackgroundSpec) string {
	quality, ok := sceneQualityLabels[spec.SceneType]
	if !ok {
		quality = "premium digital artwork"
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("A %s: %s.", quality, strings.TrimRight(spec.Description, ".")))

	if spec.Composition != "" {
		parts = append(parts, "Composition: "+strings.TrimRight(spec.Composition, ".")+".")
	}

	colorPart := "Color palette: dominant color " + spec.PrimaryColorHex
	if acc := strings.ToLower(strings.TrimSpace(spec.AccentColorHex)); acc != "" && acc != "none" {
		colorPart += ", accent " + spec.AccentColorHex
	}
	parts = append(parts, colorPart+".")

	var atmosphere []string
	if spec.Lighting != "" {
		atmosphere = append(atmosphere, "Lighting: "+strings.TrimRight(spec.Lighting, "."))
	}
	if tex := strings.TrimSpace(spec.Texture); tex != "" && !strings.EqualFold(tex, "smooth digital") {
		atmosphere = append(atmosphere, "Texture: "+strings.TrimRight(tex, "."))
	}
	if spec.Mood != "" {
		atmosphere = append(atmosphere, "Mood: "+strings.TrimRight(spec.Mood, "."))
	}
	if len(atmosphere) > 0 {
		parts = append(parts, strings.Join(atmosphere, ". ")+".")
	}

	parts = append(parts, fmt.Sprintf("Wide cinematic format filling the entire frame edge-to-edge, %s rendering quality.", quality))

	if avoid := joinAvoid(spec.Avoid); avoid != "" {
		parts = append(parts, "Absolutely no: "+avoid+".")
	}

	return strings.Join(parts, "\n")
}

func joinAvoid(avoid []string) string {
	var items []string
	for _, a := range avoid {
		if a = strings.TrimSpace(a); a != "" {
			items = append(items, strings.TrimRight(a, "."))
		}
	}
	return strings.Join(items, ", ")
}
