// Package colorspace implements the perceptual color math behind
// palette enrichment: hex parsing, sRGB/OKLab/OKLCh conversion,
// shade-scale generation, hue-family bucketing, and descriptive
// swatch naming.
package colorspace

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// HexPattern matches the canonical six-digit hex form required of all
// palette output.
var HexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// RGB is an 8-bit sRGB color.
type RGB struct {
	R, G, B uint8
}

// OKLab is a color in the OKLab perceptual space. L is lightness in
// [0,1]; A and B are the opponent axes.
type OKLab struct {
	L, A, B float64
}

// OKLCh is the cylindrical form of OKLab. H is the hue angle in
// degrees, normalized to [0,360).
type OKLCh struct {
	L, C, H float64
}

// ParseHex parses "#RRGGBB" or "#RGB", case-insensitive, leading '#'
// optional.
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// NormalizeHex reformats any parseable color as uppercase "#RRGGBB".
func NormalizeHex(s string) (string, error) {
	c, err := ParseHex(s)
	if err != nil {
		return "", err
	}
	return c.Hex(), nil
}

// Hex formats the color as uppercase "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Luminance returns the BT.601 luma of the color in [0,1]. Used for
// light-on-dark decisions in logo variants and role fallback.
func (c RGB) Luminance() float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func linearToSRGB(c float64) float64 {
	c = math.Max(0, math.Min(1, c))
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

// OKLab converts the color into OKLab space using the transform
// published by Björn Ottosson.
func (c RGB) OKLab() OKLab {
	r := srgbToLinear(float64(c.R) / 255)
	g := srgbToLinear(float64(c.G) / 255)
	b := srgbToLinear(float64(c.B) / 255)

	l := 0.4122214708*r + 0.5363325363*g + 0.0514459929*b
	m := 0.2119034982*r + 0.6806995451*g + 0.1073969566*b
	s := 0.0883024619*r + 0.2817188376*g + 0.6299787005*b

	l, m, s = math.Cbrt(l), math.Cbrt(m), math.Cbrt(s)

	return OKLab{
		L: 0.2104542553*l + 0.7936177850*m - 0.0040720468*s,
		A: 1.9779984951*l - 2.4285922050*m + 0.4505937099*s,
		B: 0.0259040371*l + 0.7827717662*m - 0.8086757660*s,
	}
}

// RGB converts back to 8-bit sRGB. Out-of-gamut channels clamp to the
// displayable range.
func (c OKLab) RGB() RGB {
	l := c.L + 0.3963377774*c.A + 0.2158037573*c.B
	m := c.L - 0.1055613458*c.A - 0.0638541728*c.B
	s := c.L - 0.0894841775*c.A - 1.2914855480*c.B

	l, m, s = l*l*l, m*m*m, s*s*s

	r := 4.0767416621*l - 3.3077115913*m + 0.2309699292*s
	g := -1.2684380046*l + 2.6097574011*m - 0.3413193965*s
	b := -0.0041960863*l - 0.7034186147*m + 1.7076147010*s

	return RGB{
		R: uint8(math.Round(linearToSRGB(r) * 255)),
		G: uint8(math.Round(linearToSRGB(g) * 255)),
		B: uint8(math.Round(linearToSRGB(b) * 255)),
	}
}

// OKLCh converts to the cylindrical form.
func (c OKLab) OKLCh() OKLCh {
	h := math.Atan2(c.B, c.A) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return OKLCh{L: c.L, C: math.Hypot(c.A, c.B), H: h}
}

// OKLab converts back to the rectangular form.
func (c OKLCh) OKLab() OKLab {
	h := c.H * math.Pi / 180
	return OKLab{L: c.L, A: c.C * math.Cos(h), B: c.C * math.Sin(h)}
}

// DeltaE is the Euclidean distance between two colors in OKLab,
// scaled by 100 to line up with the conventional Lab range where
// values under 2 read as the same color.
func DeltaE(a, b OKLab) float64 {
	dl := a.L - b.L
	da := a.A - b.A
	db := a.B - b.B
	return 100 * math.Sqrt(dl*dl+da*da+db*db)
}

// DeltaEHex is DeltaE over two hex strings.
func DeltaEHex(a, b string) (float64, error) {
	ca, err := ParseHex(a)
	if err != nil {
		return 0, err
	}
	cb, err := ParseHex(b)
	if err != nil {
		return 0, err
	}
	return DeltaE(ca.OKLab(), cb.OKLab()), nil
}

// Lightness returns the OKLab lightness of a hex color.
func Lightness(hex string) (float64, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return 0, err
	}
	return c.OKLab().L, nil
}

// RGBToCMYK converts to percentage CMYK for print annotations on
// palette boards.
func RGBToCMYK(c RGB) (cy, m, y, k int) {
	if c.R == 0 && c.G == 0 && c.B == 0 {
		return 0, 0, 0, 100
	}
	rf := float64(c.R) / 255
	gf := float64(c.G) / 255
	bf := float64(c.B) / 255
	kf := 1 - math.Max(rf, math.Max(gf, bf))
	if kf >= 1 {
		return 0, 0, 0, 100
	}
	cf := (1 - rf - kf) / (1 - kf)
	mf := (1 - gf - kf) / (1 - kf)
	yf := (1 - bf - kf) / (1 - kf)
	return int(math.Round(cf * 100)), int(math.Round(mf * 100)), int(math.Round(yf * 100)), int(math.Round(kf * 100))
}
