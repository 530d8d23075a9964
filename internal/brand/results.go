package brand

// DirectionAssets is the generated payload for one direction. Path
// fields stay empty until the producing stage writes the file.
type DirectionAssets struct {
	Logo            string        `json:"logo,omitempty"`
	LogoWhite       string        `json:"logo_white,omitempty"`
	LogoBlack       string        `json:"logo_black,omitempty"`
	LogoTransparent string        `json:"logo_transparent,omitempty"`
	Pattern         string        `json:"pattern,omitempty"`
	Background      string        `json:"background,omitempty"`
	PalettePNG      string        `json:"palette_png,omitempty"`
	ShadesPNG       string        `json:"shades_png,omitempty"`
	EnrichedColors  []ColorSwatch `json:"enriched_colors,omitempty"`
}

// LogosPhaseResult is the phase-1 deliverable. It lives for as long as
// the user takes to review the four options, so it carries everything
// a later phase or refinement needs to resume.
type LogosPhaseResult struct {
	RunID          string                  `json:"run_id"`
	RunDir         string                  `json:"run_dir"`
	Brief          *Brief                  `json:"brief,omitempty"`
	Directions     BrandDirectionsOutput   `json:"directions"`
	AssetsByOption map[int]DirectionAssets `json:"assets_by_option"`
}

// AssetsPhaseResult is the phase-2 deliverable for the direction the
// user selected.
type AssetsPhaseResult struct {
	RunID        string          `json:"run_id"`
	OptionNumber int             `json:"option_number"`
	Assets       DirectionAssets `json:"assets"`
	Mockups      []string        `json:"mockups,omitempty"`
	SocialPosts  []string        `json:"social_posts,omitempty"`
	Stylescape   string          `json:"stylescape,omitempty"`
}
