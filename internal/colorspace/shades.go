package colorspace

// ShadeStops lists the scale indices from lightest to darkest. Stop
// 500 is always the base color itself.
var ShadeStops = []int{50, 100, 200, 300, 400, 500, 600, 700, 800, 900}

// Interpolation targets per stop. Light stops walk from the base
// toward near-white and dark stops toward near-black, as fractions of
// the remaining lightness range so the ramp stays strictly ordered
// for any base. Chroma eases off at both ends so tints stay soft and
// deep shades stay rich.
var (
	lightFrac = map[int]float64{50: 1.0, 100: 0.82, 200: 0.62, 300: 0.42, 400: 0.21}
	darkFrac  = map[int]float64{600: 0.24, 700: 0.47, 800: 0.71, 900: 1.0}

	chromaFrac = map[int]float64{
		50: 0.20, 100: 0.35, 200: 0.55, 300: 0.75, 400: 0.90,
		500: 1.0, 600: 0.95, 700: 0.90, 800: 0.82, 900: 0.70,
	}
)

// ShadeScale derives a tint-to-shade ramp from a single base color by
// interpolating lightness in OKLCh while holding the hue angle fixed.
// The base is emitted verbatim (normalized) at stop 500; lightness
// decreases strictly from stop 50 down to stop 900. Iterate with
// ShadeStops for ordered output.
func ShadeScale(hex string) (map[int]string, error) {
	base, err := ParseHex(hex)
	if err != nil {
		return nil, err
	}
	lch := base.OKLab().OKLCh()

	lmax := lch.L + (1.0-lch.L)*0.92
	lmin := lch.L * 0.24

	out := make(map[int]string, len(ShadeStops))
	for _, stop := range ShadeStops {
		if stop == 500 {
			out[stop] = base.Hex()
			continue
		}
		var l float64
		if stop < 500 {
			l = lch.L + (lmax-lch.L)*lightFrac[stop]
		} else {
			l = lch.L - (lch.L-lmin)*darkFrac[stop]
		}
		shade := OKLCh{L: l, C: lch.C * chromaFrac[stop], H: lch.H}
		out[stop] = shade.OKLab().RGB().Hex()
	}
	return out, nil
}
