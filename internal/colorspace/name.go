package colorspace

// DescriptiveName invents a short display name for a swatch, keyed on
// channel dominance and overall luminance. idx varies the pick so a
// palette of five reds does not come out all "Ember".
func DescriptiveName(hex string, idx int) string {
	c, err := ParseHex(hex)
	if err != nil {
		return "Tone"
	}
	lum := c.Luminance()
	maxCh := c.R
	if c.G > maxCh {
		maxCh = c.G
	}
	if c.B > maxCh {
		maxCh = c.B
	}

	switch {
	case maxCh < 30:
		return "Shadow"
	case lum > 0.88:
		if maxCh > 240 {
			return "White"
		}
		return "Mist"
	case lum < 0.12:
		if idx == 0 {
			return "Ink"
		}
		return "Deep"
	}

	var names []string
	switch {
	case c.R > c.G && c.R > c.B:
		names = []string{"Ember", "Rust", "Terra", "Crimson", "Blush"}
	case c.G > c.R && c.G > c.B:
		names = []string{"Sage", "Forest", "Fern", "Jade", "Moss"}
	case c.B > c.R && c.B > c.G:
		names = []string{"Cobalt", "Navy", "Slate", "Ice", "Dusk"}
	case c.R > 180 && c.G > 150 && c.B < 100:
		names = []string{"Gold", "Amber", "Sand", "Wheat", "Honey"}
	case c.R > 150 && c.B > 150 && c.G < 100:
		names = []string{"Mauve", "Plum", "Lilac", "Violet", "Orchid"}
	default:
		names = []string{"Stone", "Clay", "Dust", "Muted", "Tone"}
	}
	return names[idx%len(names)]
}
