package colorspace

// Family names a bucket on the OKLCh hue wheel. Low-chroma colors
// fall into FamilyNeutral regardless of hue angle.
type Family string

const (
	FamilyRed     Family = "red"
	FamilyOrange  Family = "orange"
	FamilyYellow  Family = "yellow"
	FamilyGreen   Family = "green"
	FamilyCyan    Family = "cyan"
	FamilyBlue    Family = "blue"
	FamilyPurple  Family = "purple"
	FamilyMagenta Family = "magenta"
	FamilyNeutral Family = "neutral"
)

// Below this chroma a color reads as gray and its hue angle is noise.
const neutralChroma = 0.03

// FamilyOf buckets a hex color into its hue family.
func FamilyOf(hex string) (Family, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return "", err
	}
	return familyOf(c.OKLab().OKLCh()), nil
}

// Boundaries sit between the OKLCh hue angles of the sRGB primaries
// and secondaries (red 29, orange 53, yellow 110, green 142, cyan 195,
// blue 264, violet 294, magenta 328).
func familyOf(c OKLCh) Family {
	if c.C < neutralChroma {
		return FamilyNeutral
	}
	h := c.H
	switch {
	case h < 40 || h >= 345:
		return FamilyRed
	case h < 75:
		return FamilyOrange
	case h < 120:
		return FamilyYellow
	case h < 170:
		return FamilyGreen
	case h < 230:
		return FamilyCyan
	case h < 275:
		return FamilyBlue
	case h < 315:
		return FamilyPurple
	default:
		return FamilyMagenta
	}
}
