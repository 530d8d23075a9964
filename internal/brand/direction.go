package brand

import (
	"fmt"
	"strings"

	"brandforge/internal/colorspace"
)

// Color roles a direction's palette may carry. Every palette must
// cover at least primary, neutral-dark, and neutral-light.
const (
	RolePrimary      = "primary"
	RoleSecondary    = "secondary"
	RoleAccent       = "accent"
	RoleNeutralDark  = "neutral-dark"
	RoleNeutralLight = "neutral-light"
	RoleSupport      = "support"
)

var validRoles = map[string]bool{
	RolePrimary: true, RoleSecondary: true, RoleAccent: true,
	RoleNeutralDark: true, RoleNeutralLight: true, RoleSupport: true,
}

var requiredRoles = []string{RolePrimary, RoleNeutralDark, RoleNeutralLight}

// Option types, fixed per slot: option N always carries the same type.
const (
	OptionMarketAligned = "Market-Aligned"
	OptionDesignerLed   = "Designer-Led"
	OptionHybrid        = "Hybrid"
	OptionWildCard      = "Wild-Card"
)

// OptionTypeFor returns the fixed option type for a slot in [1,4].
func OptionTypeFor(optionNumber int) string {
	switch optionNumber {
	case 1:
		return OptionMarketAligned
	case 2:
		return OptionDesignerLed
	case 3:
		return OptionHybrid
	case 4:
		return OptionWildCard
	default:
		return ""
	}
}

// Logo types the director may choose from.
const (
	LogoSymbol       = "symbol"
	LogoAbstractMark = "abstract_mark"
	LogoLettermark   = "lettermark"
	LogoLogotype     = "logotype"
	LogoCombination  = "combination"
)

var validLogoTypes = map[string]bool{
	LogoSymbol: true, LogoAbstractMark: true, LogoLettermark: true,
	LogoLogotype: true, LogoCombination: true,
}

var validFillStyles = map[string]bool{
	"solid_fill": true, "outline_only": true, "fill_with_outline_detail": true,
}

var validStrokeWeights = map[string]bool{
	"hairline": true, "thin": true, "medium": true, "bold": true,
}

var validSceneTypes = map[string]bool{
	"environmental_photo": true, "abstract_field": true,
	"macro_texture": true, "digital_art": true,
}

// ColorSwatch is one palette entry.
type ColorSwatch struct {
	Hex  string `json:"hex"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// Validate checks the hex form and role vocabulary.
func (c ColorSwatch) Validate() error {
	if !colorspace.HexPattern.MatchString(c.Hex) {
		return fmt.Errorf("color %q: hex must be #RRGGBB", c.Hex)
	}
	if !validRoles[c.Role] {
		return fmt.Errorf("color %s: unknown role %q", c.Hex, c.Role)
	}
	return nil
}

// LogoSpec is a render specification for a logo, not an image.
type LogoSpec struct {
	LogoType            string   `json:"logo_type"`
	Form                string   `json:"form"`
	Composition         string   `json:"composition"`
	ColorHex            string   `json:"color_hex"`
	ColorName           string   `json:"color_name,omitempty"`
	FillStyle           string   `json:"fill_style"`
	StrokeWeight        string   `json:"stroke_weight"`
	TypographyTreatment string   `json:"typography_treatment"`
	RenderStyle         string   `json:"render_style"`
	Metaphor            string   `json:"metaphor"`
	Avoid               []string `json:"avoid,omitempty"`
}

func (s LogoSpec) Validate() error {
	if !validLogoTypes[s.LogoType] {
		return fmt.Errorf("logo_spec: unknown logo_type %q", s.LogoType)
	}
	if !colorspace.HexPattern.MatchString(s.ColorHex) {
		return fmt.Errorf("logo_spec: color_hex %q must be #RRGGBB", s.ColorHex)
	}
	if !validFillStyles[s.FillStyle] {
		return fmt.Errorf("logo_spec: unknown fill_style %q", s.FillStyle)
	}
	if !validStrokeWeights[s.StrokeWeight] {
		return fmt.Errorf("logo_spec: unknown stroke_weight %q", s.StrokeWeight)
	}
	return nil
}

// PatternSpec is a render specification for a repeating brand pattern.
// Secondary color may be the literal "none".
type PatternSpec struct {
	Motif              string   `json:"motif"`
	DensityScale       string   `json:"density_scale"`
	PrimaryColorHex    string   `json:"primary_color_hex"`
	SecondaryColorHex  string   `json:"secondary_color_hex"`
	BackgroundColorHex string   `json:"background_color_hex"`
	OpacityNotes       string   `json:"opacity_notes"`
	RenderStyle        string   `json:"render_style"`
	Mood               string   `json:"mood"`
	Avoid              []string `json:"avoid,omitempty"`
}

func (s PatternSpec) Validate() error {
	if strings.TrimSpace(s.Motif) == "" {
		return fmt.Errorf("pattern_spec: motif is required")
	}
	if !colorspace.HexPattern.MatchString(s.PrimaryColorHex) {
		return fmt.Errorf("pattern_spec: primary_color_hex %q must be #RRGGBB", s.PrimaryColorHex)
	}
	if s.SecondaryColorHex != "none" && !colorspace.HexPattern.MatchString(s.SecondaryColorHex) {
		return fmt.Errorf("pattern_spec: secondary_color_hex %q must be #RRGGBB or \"none\"", s.SecondaryColorHex)
	}
	if !colorspace.HexPattern.MatchString(s.BackgroundColorHex) {
		return fmt.Errorf("pattern_spec: background_color_hex %q must be #RRGGBB", s.BackgroundColorHex)
	}
	return nil
}

// BackgroundSpec is a render specification for a brand background.
// Accent color may be the literal "none".
type BackgroundSpec struct {
	SceneType       string   `json:"scene_type"`
	Description     string   `json:"description"`
	PrimaryColorHex string   `json:"primary_color_hex"`
	AccentColorHex  string   `json:"accent_color_hex"`
	Lighting        string   `json:"lighting"`
	Composition     string   `json:"composition"`
	Texture         string   `json:"texture"`
	Mood            string   `json:"mood"`
	Avoid           []string `json:"avoid,omitempty"`
}

func (s BackgroundSpec) Validate() error {
	if !validSceneTypes[s.SceneType] {
		return fmt.Errorf("background_spec: unknown scene_type %q", s.SceneType)
	}
	if strings.TrimSpace(s.Description) == "" {
		return fmt.Errorf("background_spec: description is required")
	}
	if !colorspace.HexPattern.MatchString(s.PrimaryColorHex) {
		return fmt.Errorf("background_spec: primary_color_hex %q must be #RRGGBB", s.PrimaryColorHex)
	}
	if s.AccentColorHex != "none" && !colorspace.HexPattern.MatchString(s.AccentColorHex) {
		return fmt.Errorf("background_spec: accent_color_hex %q must be #RRGGBB or \"none\"", s.AccentColorHex)
	}
	return nil
}

// BrandDirection is one of the four creative directions in a run.
type BrandDirection struct {
	OptionNumber        int            `json:"option_number"`
	OptionType          string         `json:"option_type"`
	DirectionName       string         `json:"direction_name"`
	Rationale           string         `json:"rationale"`
	Colors              []ColorSwatch  `json:"colors"`
	TypographyPrimary   string         `json:"typography_primary"`
	TypographySecondary string         `json:"typography_secondary"`
	GraphicStyle        string         `json:"graphic_style"`
	LogoConcept         string         `json:"logo_concept,omitempty"`
	LogoSpec            LogoSpec       `json:"logo_spec"`
	PatternSpec         PatternSpec    `json:"pattern_spec"`
	BackgroundSpec      BackgroundSpec `json:"background_spec"`
	Tagline             string         `json:"tagline"`
	AdSlogan            string         `json:"ad_slogan"`
	AnnouncementCopy    string         `json:"announcement_copy"`
}

// Validate checks the direction's slot, palette, and nested specs.
func (d *BrandDirection) Validate() error {
	if d.OptionNumber < 1 || d.OptionNumber > 4 {
		return fmt.Errorf("direction: option_number %d out of range [1,4]", d.OptionNumber)
	}
	if want := OptionTypeFor(d.OptionNumber); d.OptionType != want {
		return fmt.Errorf("direction %d: option_type %q, want %q", d.OptionNumber, d.OptionType, want)
	}
	if strings.TrimSpace(d.DirectionName) == "" {
		return fmt.Errorf("direction %d: direction_name is required", d.OptionNumber)
	}
	if len(d.Colors) < 4 || len(d.Colors) > 6 {
		return fmt.Errorf("direction %d: palette has %d colors, want 4-6", d.OptionNumber, len(d.Colors))
	}
	seen := map[string]bool{}
	for _, c := range d.Colors {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("direction %d: %w", d.OptionNumber, err)
		}
		seen[c.Role] = true
	}
	for _, role := range requiredRoles {
		if !seen[role] {
			return fmt.Errorf("direction %d: palette missing role %q", d.OptionNumber, role)
		}
	}
	if err := d.LogoSpec.Validate(); err != nil {
		return fmt.Errorf("direction %d: %w", d.OptionNumber, err)
	}
	if err := d.PatternSpec.Validate(); err != nil {
		return fmt.Errorf("direction %d: %w", d.OptionNumber, err)
	}
	if err := d.BackgroundSpec.Validate(); err != nil {
		return fmt.Errorf("direction %d: %w", d.OptionNumber, err)
	}
	return nil
}

// PrimarySwatch returns the palette entry with the primary role. The
// palette is validated before use, so a missing primary only happens
// on unvalidated records.
func (d *BrandDirection) PrimarySwatch() (ColorSwatch, bool) {
	for _, c := range d.Colors {
		if c.Role == RolePrimary {
			return c, true
		}
	}
	return ColorSwatch{}, false
}

// PrimaryFamily buckets the direction's primary color into its hue
// family.
func (d *BrandDirection) PrimaryFamily() (colorspace.Family, error) {
	p, ok := d.PrimarySwatch()
	if !ok {
		return "", fmt.Errorf("direction %d: no primary color", d.OptionNumber)
	}
	return colorspace.FamilyOf(p.Hex)
}

// BrandDirectionsOutput is the director's full deliverable: exactly
// four directions in slot order.
type BrandDirectionsOutput struct {
	BrandSummary string           `json:"brand_summary"`
	Directions   []BrandDirection `json:"directions"`
}

// Validate checks the slot structure, every direction, and pairwise
// visual distinctness.
func (o *BrandDirectionsOutput) Validate() error {
	if len(o.Directions) != 4 {
		return fmt.Errorf("directions: got %d, want exactly 4", len(o.Directions))
	}
	seen := map[int]bool{}
	for i := range o.Directions {
		d := &o.Directions[i]
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.OptionNumber] {
			return fmt.Errorf("directions: duplicate option_number %d", d.OptionNumber)
		}
		seen[d.OptionNumber] = true
	}
	if conflicts := o.DistinctnessViolations(); len(conflicts) > 0 {
		return fmt.Errorf("directions: %s", strings.Join(conflicts, "; "))
	}
	return nil
}

// DistinctnessViolations lists pairs of directions that share both a
// primary hue family and a logo type. An empty result means the four
// directions are visually distinct.
func (o *BrandDirectionsOutput) DistinctnessViolations() []string {
	type key struct {
		family   colorspace.Family
		logoType string
	}
	firstByKey := map[key]int{}
	var conflicts []string
	for i := range o.Directions {
		d := &o.Directions[i]
		fam, err := d.PrimaryFamily()
		if err != nil {
			continue
		}
		k := key{family: fam, logoType: d.LogoSpec.LogoType}
		if prev, dup := firstByKey[k]; dup {
			conflicts = append(conflicts, fmt.Sprintf(
				"options %d and %d both use a %s primary with a %s logo",
				prev, d.OptionNumber, k.family, k.logoType))
			continue
		}
		firstByKey[k] = d.OptionNumber
	}
	return conflicts
}

// ByOption returns the direction in the given slot.
func (o *BrandDirectionsOutput) ByOption(optionNumber int) (*BrandDirection, bool) {
	for i := range o.Directions {
		if o.Directions[i].OptionNumber == optionNumber {
			return &o.Directions[i], true
		}
	}
	return nil, false
}

// VerifyLockedCopy checks that every locked copy line from the brief
// appears byte-for-byte in all four directions.
func (o *BrandDirectionsOutput) VerifyLockedCopy(locked LockedCopy) error {
	if locked.Empty() {
		return nil
	}
	for i := range o.Directions {
		d := &o.Directions[i]
		if locked.Tagline != "" && d.Tagline != locked.Tagline {
			return fmt.Errorf("direction %d: tagline %q differs from locked %q", d.OptionNumber, d.Tagline, locked.Tagline)
		}
		if locked.Slogan != "" && d.AdSlogan != locked.Slogan {
			return fmt.Errorf("direction %d: ad_slogan %q differs from locked %q", d.OptionNumber, d.AdSlogan, locked.Slogan)
		}
		if locked.Announcement != "" && d.AnnouncementCopy != locked.Announcement {
			return fmt.Errorf("direction %d: announcement_copy %q differs from locked %q", d.OptionNumber, d.AnnouncementCopy, locked.Announcement)
		}
	}
	return nil
}

// ApplyLockedCopy overwrites the copy fields of every direction with
// the locked lines. Used to normalize model output before validation
// so a paraphrased line cannot leak through.
func (o *BrandDirectionsOutput) ApplyLockedCopy(locked LockedCopy) {
	if locked.Empty() {
		return
	}
	for i := range o.Directions {
		d := &o.Directions[i]
		if locked.Tagline != "" {
			d.Tagline = locked.Tagline
		}
		if locked.Slogan != "" {
			d.AdSlogan = locked.Slogan
		}
		if locked.Announcement != "" {
			d.AnnouncementCopy = locked.Announcement
		}
	}
}
