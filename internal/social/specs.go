// Package social renders the launch post set for the chosen
// direction: five fixed-aspect canvases under social/, each generated
// from a structured JSON prompt envelope with the logo attached, plus
// a contact-sheet board of the whole set. Copy lines follow a strict
// priority: locked brief copy wins, then the direction's authored
// lines, then a structured generation from the brief.
package social

import (
	"encoding/json"
	"fmt"
	"strings"

	"brandforge/internal/brand"
)

// CopyField names which resolved copy line a post renders.
type CopyField string

const (
	CopyNone         CopyField = ""
	CopyTagline      CopyField = "tagline"
	CopySlogan       CopyField = "slogan"
	CopyAnnouncement CopyField = "announcement"
)

// postSpec describes one social canvas: its geometry, the layout the
// prompt envelope asks for, and which copy line it carries.
type postSpec struct {
	Name        string // file stem, social/<name>.png
	Label       string
	Width       int
	Height      int
	Ratio       string
	Goal        string
	Layout      map[string]string
	CopyField   CopyField
	Constraints []string
}

var postSpecs = []postSpec{
	{
		Name:   "ig_post",
		Label:  "Instagram Post",
		Width:  1080,
		Height: 1080,
		Ratio:  "1:1",
		Goal:   "Instagram feed announcement: small logo top, announcement copy center",
		Layout: map[string]string{
			"type":        "centered_text",
			"top_zone":    "brand logo, small, centered horizontally, ~12% of height from top",
			"center_zone": "announcement copy text, large legible font, centered",
			"background":  "brand primary color as background, or the background mood as a subtle texture",
		},
		CopyField: CopyAnnouncement,
		Constraints: []string{
			"strict 1:1 ratio, 1080x1080px",
			"logo must be small, centered at top",
			"announcement text is the hero: large, centered, high contrast against background",
			"use brand typography style (modern sans-serif or serif per direction)",
			"no other decorative elements, clean and minimal",
			"text must be clearly readable, strong contrast ratio",
		},
	},
	{
		Name:   "ig_story",
		Label:  "Instagram Story Card",
		Width:  1080,
		Height: 1080,
		Ratio:  "1:1",
		Goal:   "story share card: tagline forward, logo anchor at the bottom",
		Layout: map[string]string{
			"type":        "tagline_card",
			"center_zone": "brand tagline, large expressive type, centered",
			"bottom_zone": "brand logo, small, centered near the bottom edge",
			"background":  "bold brand background: primary color field or the pattern motif",
		},
		CopyField: CopyTagline,
		Constraints: []string{
			"strict 1:1 ratio, 1080x1080px",
			"tagline is dominant, expressive but readable",
			"logo is a quiet anchor, never competing with the tagline",
			"bold graphic background using the brand palette",
			"punchy, story-share quality",
		},
	},
	{
		Name:   "fb_post",
		Label:  "Facebook Post",
		Width:  1920,
		Height: 1080,
		Ratio:  "16:9",
		Goal:   "link-preview style announcement: copy block left, logo field right",
		Layout: map[string]string{
			"type":       "split_horizontal",
			"left_zone":  "announcement copy, large legible font, left-aligned text block (left two thirds)",
			"right_zone": "brand logo centered on a brand-colored field (right third)",
			"background": "clean neutral field with a brand accent edge",
		},
		CopyField: CopyAnnouncement,
		Constraints: []string{
			"strict 16:9 ratio, 1920x1080px",
			"clean split layout, copy block and logo field clearly separated",
			"the brand logo stays exactly as provided, do not alter it",
			"copy must be clearly readable at feed size",
			"high production quality, suitable for social media",
		},
	},
	{
		Name:   "x_post",
		Label:  "X Post",
		Width:  1920,
		Height: 1080,
		Ratio:  "16:9",
		Goal:   "brand advertisement: large slogan hero + small logo corner",
		Layout: map[string]string{
			"type":       "slogan_hero",
			"main_zone":  "large bold slogan text, dominant, center or center-left",
			"logo_zone":  "brand logo small, bottom-right corner, ~5% of canvas size",
			"background": "bold brand background: use brand color palette, pattern, or abstract shape",
		},
		CopyField: CopySlogan,
		Constraints: []string{
			"strict 16:9 ratio, 1920x1080px",
			"slogan text is dominant, fills 50-70% of the canvas visually",
			"logo is intentionally small: brand whisper, not shout",
			"bold graphic background using brand primary + secondary colors",
			"can use pattern or geometric shapes from brand direction",
			"high contrast, punchy, ad-campaign quality",
			"no other copy or decorative text",
		},
	},
	{
		Name:   "linkedin_post",
		Label:  "LinkedIn Post",
		Width:  1920,
		Height: 1080,
		Ratio:  "16:9",
		Goal:   "professional announcement: confident headline with a corporate lockup",
		Layout: map[string]string{
			"type":        "headline_lockup",
			"top_zone":    "brand logo lockup, modest, top left",
			"center_zone": "announcement copy as a confident headline, left-aligned",
			"background":  "restrained corporate field: neutral light with brand primary accents",
		},
		CopyField: CopyAnnouncement,
		Constraints: []string{
			"strict 16:9 ratio, 1920x1080px",
			"professional, restrained tone with generous whitespace",
			"headline clearly readable, strong hierarchy",
			"the brand logo stays exactly as provided, do not alter it",
			"corporate-communications quality",
		},
	},
}

// Envelope types for the structured prompt. The model receives the
// whole layout as one JSON document rather than loose prose, which
// keeps canvas geometry and constraints machine-checkable.

type envelope struct {
	ImageGen envelopeSpec `json:"IMAGE_GEN_V1"`
}

type envelopeSpec struct {
	Task        string            `json:"task"`
	Format      string            `json:"format"`
	Canvas      canvasSpec        `json:"canvas"`
	PostType    string            `json:"post_type"`
	Goal        string            `json:"goal"`
	Brand       brandContext      `json:"brand"`
	Layout      map[string]string `json:"layout"`
	Copy        string            `json:"copy,omitempty"`
	Constraints []string          `json:"constraints"`
	Output      outputSpec        `json:"output"`
}

type canvasSpec struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ratio  string `json:"ratio"`
}

type brandContext struct {
	Name           string `json:"name"`
	Direction      string `json:"direction"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	GraphicStyle   string `json:"graphic_style"`
}

type outputSpec struct {
	Resolution string `json:"resolution"`
	Format     string `json:"format"`
	Quality    string `json:"quality"`
}

// buildPostPrompt renders the full text side of one post call: the
// JSON envelope, the attachment manifest when a logo rides along, and
// the closing instruction.
func buildPostPrompt(spec postSpec, brief *brand.Brief, dir *brand.BrandDirection, copyText string, hasLogo bool) (string, error) {
	env := envelope{ImageGen: envelopeSpec{
		Task:     "image_create",
		Format:   "social_post_" + strings.ReplaceAll(spec.Ratio, ":", "_"),
		Canvas:   canvasSpec{Width: spec.Width, Height: spec.Height, Ratio: spec.Ratio},
		PostType: spec.Name,
		Goal:     spec.Goal,
		Brand: brandContext{
			Name:           brief.BrandName,
			Direction:      dir.DirectionName,
			PrimaryColor:   roleHex(dir, brand.RolePrimary, "#333333"),
			SecondaryColor: roleHex(dir, brand.RoleSecondary, "#666666"),
			AccentColor:    roleHex(dir, brand.RoleAccent, "#999999"),
			GraphicStyle:   dir.GraphicStyle,
		},
		Layout:      spec.Layout,
		Copy:        copyText,
		Constraints: spec.Constraints,
		Output: outputSpec{
			Resolution: fmt.Sprintf("%dx%d", spec.Width, spec.Height),
			Format:     "png",
			Quality:    "social media ready, high production value",
		},
	}}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s prompt: %w", spec.Name, err)
	}

	var b strings.Builder
	b.Write(data)
	if hasLogo {
		b.WriteString("\n\n## ATTACHED IMAGES (in order)\n")
		b.WriteString("1. The brand logo mark. Use it in the layout exactly as specified; do not alter it.\n")
	}
	fmt.Fprintf(&b, "\nGenerate the %s now. Output only the final %s image.", spec.Label, spec.Ratio)
	return b.String(), nil
}

// roleHex finds the swatch for a role, with the original fallback
// grays when the palette lacks it.
func roleHex(dir *brand.BrandDirection, role, def string) string {
	for _, c := range dir.Colors {
		if c.Role == role {
			return c.Hex
		}
	}
	return def
}
