// Package mockup applies a chosen direction's assets onto a library of
// product photographs. Each photo carries pre-authored placeholder
// zones; a multimodal image model reconstructs the photograph with the
// brand applied, so perspective, lighting, and materials stay true to
// the original shot. Items run in a bounded pool and fail
// independently: a missing photo skips, a dead model call marks the
// item failed, and the rest of the set still lands.
package mockup

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"brandforge/internal/logging"
)

// LibraryFile is the per-project override read from the mockup
// directory. When absent the built-in library below is used.
const LibraryFile = "mockups.yaml"

// Mockup describes one product photograph and how the brand lands on
// it. Zone geometry is authored when the photo enters the library; the
// runtime trusts it and never re-detects placeholder regions.
type Mockup struct {
	// Name keys the output file, mockups/<name>_composite.png.
	Name string `yaml:"name"`

	// Photo is the placeholder-zoned photograph, relative to the
	// library directory unless absolute.
	Photo string `yaml:"photo"`

	// Zone describes where the placeholder regions sit in the photo.
	Zone string `yaml:"zone"`

	// Dark marks mockups whose logo surface is dark, which switches
	// the attached logo to the white variant.
	Dark bool `yaml:"dark"`

	// Prompt hints carried into the reconstruction call.
	Scene     string `yaml:"scene"`
	Placement string `yaml:"placement"`
	LogoColor string `yaml:"logo_color"`
	LogoSize  string `yaml:"logo_size"`
	Material  string `yaml:"material"`
	Style     string `yaml:"style"`
}

// DefaultLibrary returns the standard ten mockups. Photo paths are
// relative; LoadLibrary resolves them against the library directory.
func DefaultLibrary() []Mockup {
	return []Mockup{
		{
			Name:      "wall_logo",
			Photo:     "wall_logo_processed.png",
			Zone:      "parallelogram signage panel on the interior wall, perspective preserved",
			Scene:     "Architectural interior wall with dimensional brand signage. The logo appears as mounted letters or a logo mark on the wall surface, casting realistic drop shadows.",
			Placement: "centered on the parallelogram-shaped architectural panel",
			LogoColor: "white or off-white",
			LogoSize:  "large, spanning 65% of the panel width",
			Material:  "painted metal or dimensional acrylic letters",
			Style:     "premium corporate architectural signage, photorealistic",
		},
		{
			Name:      "app_icon_phone",
			Photo:     "app_Icon_phone_flat_processed.png",
			Zone:      "rounded-square icon slot on the phone home screen, app name label strip directly below",
			Scene:     "Smartphone home screen showing a branded iOS app icon with rounded corners and an app name label directly below.",
			Placement: "centered inside a rounded-square icon with brand primary color as background",
			LogoColor: "white",
			LogoSize:  "filling 65% of the icon area",
			Material:  "flat vector, digital",
			Style:     "iOS app icon, clean, modern, app store quality",
		},
		{
			Name:      "black_shirt",
			Photo:     "black_shirt_logo_processed.png",
			Zone:      "chest print zone of the black t-shirt",
			Dark:      true,
			Scene:     "Black t-shirt laid flat. Brand logo screen-printed on the chest area with authentic cotton fabric texture showing through the ink.",
			Placement: "center chest",
			LogoColor: "white",
			LogoSize:  "medium, 45% of the print zone",
			Material:  "screen-print on cotton, fabric texture overlay",
			Style:     "premium apparel merchandise, streetwear",
		},
		{
			Name:      "employee_id",
			Photo:     "employee_id_card_processed.png",
			Zone:      "logo strip on the dark card face, lanyard stripe running at a perspective angle",
			Dark:      true,
			Scene:     "Corporate employee ID card with a colorful lanyard. Card face shows the company logo and name; lanyard stripe uses brand primary color.",
			Placement: "logo on the left of the card face, brand name to the right",
			LogoColor: "white on dark background",
			LogoSize:  "natural, fitting the card logo area",
			Material:  "PVC card, dye-sublimation print quality",
			Style:     "professional corporate, clean",
		},
		{
			Name:      "billboard",
			Photo:     "horizontal_billboard_processed.png",
			Zone:      "full billboard face for brand imagery, logo zone on the right side of the board",
			Scene:     "Large outdoor horizontal billboard. The billboard surface shows brand photography and a prominent logo mark on the right side of the board face.",
			Placement: "right side of the billboard face",
			LogoColor: "white (on photographic background)",
			LogoSize:  "large, 55% of the logo zone width",
			Material:  "vinyl print, outdoor advertising",
			Style:     "high-impact outdoor advertising, photorealistic",
		},
		{
			Name:      "disk",
			Photo:     "logo_transparent_disk_processed.png",
			Zone:      "center of the transparent acrylic disk face",
			Scene:     "Acrylic or glass transparent disk award with brand logo. Clean reflections, premium material, minimal aesthetic.",
			Placement: "centered on the disk face",
			LogoColor: "dark/near-black on white or clear surface",
			LogoSize:  "55% of the disk zone",
			Material:  "laser-etched acrylic",
			Style:     "premium minimal, transparent, corporate award",
		},
		{
			Name:      "name_card",
			Photo:     "name_card_processed.png",
			Zone:      "white card face for the logo, colored card face for the brand name",
			Scene:     "Luxury two-sided business card. One face uses brand primary color with the brand name in large typography. The other face is white with a small dark logo.",
			Placement: "centered on white card face; name fills the colored face",
			LogoColor: "dark on white face; high-contrast on colored face",
			LogoSize:  "40% of the white face logo zone",
			Material:  "letterpress or offset print on thick card stock",
			Style:     "luxury business card, premium print quality",
		},
		{
			Name:      "tote_bag",
			Photo:     "tote_bag_processed.jpg",
			Zone:      "front panel of the canvas tote",
			Dark:      true,
			Scene:     "Natural canvas tote bag with brand logo screen-printed on the front panel. Woven fabric texture is visible through the ink.",
			Placement: "centered on the bag face",
			LogoColor: "contrasting with bag material color",
			LogoSize:  "large, 75% of the logo zone",
			Material:  "screen-print on canvas, fabric texture",
			Style:     "eco merchandise, casual lifestyle",
		},
		{
			Name:      "tshirt",
			Photo:     "tshirt_processed.png",
			Zone:      "chest print zone, slightly above the mid-point",
			Scene:     "Light-colored t-shirt with brand logo printed on the chest area. Cotton fabric texture visible through the print.",
			Placement: "center chest, slightly above mid-point",
			LogoColor: "dark/black on light shirt",
			LogoSize:  "medium, 45% of the print zone",
			Material:  "screen-print on cotton",
			Style:     "clean apparel merchandise",
		},
		{
			Name:      "x_account",
			Photo:     "x_account_processed.png",
			Zone:      "rounded avatar slot, banner strip across the top, display-name text line",
			Scene:     "Social media profile page screenshot. Profile banner shows brand imagery. Avatar is a rounded-square with light background and dark logo. Username display shows the brand name.",
			Placement: "rounded avatar on light background; banner shows brand imagery",
			LogoColor: "dark on light avatar background; any color on banner",
			LogoSize:  "70% of the avatar zone",
			Material:  "digital, flat design",
			Style:     "social media profile, digital platform UI",
		},
	}
}

type libraryDoc struct {
	Mockups []Mockup `yaml:"mockups"`
}

// LoadLibrary reads the mockup records for dir. A mockups.yaml in dir
// replaces the built-in set entirely; otherwise the defaults are used.
// Photo paths resolve against dir. Records missing a name or photo,
// and records reusing a name, are dropped with a warning so one bad
// entry never sinks the file.
func LoadLibrary(dir string, logger logging.Logger) []Mockup {
	logger = logging.OrNop(logger)

	records := DefaultLibrary()
	path := filepath.Join(dir, LibraryFile)
	if raw, err := os.ReadFile(path); err == nil {
		var doc libraryDoc
		if yerr := yaml.Unmarshal(raw, &doc); yerr != nil {
			logger.Warn("mockup library %s is malformed, using built-in set: %v", path, yerr)
		} else {
			logger.Info("mockup library loaded from %s (%d records)", path, len(doc.Mockups))
			records = doc.Mockups
		}
	}

	out := make([]Mockup, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, m := range records {
		if err := validateRecord(m); err != nil {
			logger.Warn("mockup record %d dropped: %v", i+1, err)
			continue
		}
		if seen[m.Name] {
			logger.Warn("mockup record %d dropped: duplicate name %q", i+1, m.Name)
			continue
		}
		seen[m.Name] = true
		if !filepath.IsAbs(m.Photo) {
			m.Photo = filepath.Join(dir, m.Photo)
		}
		out = append(out, m)
	}
	return out
}

func validateRecord(m Mockup) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Photo == "" {
		return fmt.Errorf("mockup %q: photo is required", m.Name)
	}
	return nil
}
