// Package imaging holds the deterministic pixel work of the pipeline:
// logo variant extraction, palette and shade boards, and the labeled
// placeholders written when generation degrades. Everything here is
// pure computation; no model calls.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	_ "image/jpeg"

	"brandforge/internal/colorspace"
)

// WhiteThreshold is the brightness at which a pixel counts as paper
// rather than ink. Brands whose own color sits near white will lose
// pixels to the transparency cut; the threshold errs toward clean
// edges over preserving near-white fills.
const WhiteThreshold = 240

// rampWidth is the luma span over which alpha fades from opaque to
// transparent below the threshold, smoothing anti-aliased edges.
const rampWidth = 30

// Decode parses PNG or JPEG bytes.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Load reads and decodes an image file.
func Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// WritePNG encodes img and writes it, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// WriteBytes writes raw image bytes, creating parent directories.
func WriteBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// alphaFromLuma maps a pixel to ink opacity. The pixel is composited
// on white first, so already-transparent sources pass through instead
// of resurfacing as ink.
func alphaFromLuma(c color.NRGBA) uint8 {
	a := float64(c.A) / 255
	luma := (0.299*float64(c.R)+0.587*float64(c.G)+0.114*float64(c.B))*a + 255*(1-a)
	v := (WhiteThreshold - luma) / rampWidth
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(math.Round(v * 255))
}

func nrgbaAt(src image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
}

// TransparentVariant lifts the ink off a white background: pixel
// color is kept, alpha comes from brightness.
func TransparentVariant(src image.Image) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := nrgbaAt(src, x, y)
			c.A = alphaFromLuma(c)
			out.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}
	return out
}

// RecolorVariant lifts the ink like TransparentVariant but paints it
// in a single flat color. White and near-black logo variants are both
// this with a different ink.
func RecolorVariant(src image.Image, ink color.NRGBA) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := alphaFromLuma(nrgbaAt(src, x, y))
			out.SetNRGBA(x-b.Min.X, y-b.Min.Y, color.NRGBA{R: ink.R, G: ink.G, B: ink.B, A: a})
		}
	}
	return out
}

// WhiteVariant is the logo inverted for dark surfaces: white ink
// composited on a black field so the file previews everywhere.
func WhiteVariant(src image.Image) *image.NRGBA {
	ink := RecolorVariant(src, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	return compositeOn(ink, color.NRGBA{A: 0xFF})
}

// BlackVariant is the logo flattened to a near-black single ink on
// white.
func BlackVariant(src image.Image) *image.NRGBA {
	ink := RecolorVariant(src, color.NRGBA{R: 20, G: 20, B: 20, A: 0xFF})
	return compositeOn(ink, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
}

// compositeOn flattens img onto a solid background.
func compositeOn(img *image.NRGBA, bg color.NRGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			a := float64(c.A) / 255
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(math.Round(float64(c.R)*a + float64(bg.R)*(1-a))),
				G: uint8(math.Round(float64(c.G)*a + float64(bg.G)*(1-a))),
				B: uint8(math.Round(float64(c.B)*a + float64(bg.B)*(1-a))),
				A: 0xFF,
			})
		}
	}
	return out
}

// hexColor parses #RRGGBB, falling back to dark gray on bad input.
func hexColor(hex string) color.NRGBA {
	rgb, err := colorspace.ParseHex(hex)
	if err != nil {
		return color.NRGBA{R: 0x2A, G: 0x2A, B: 0x2A, A: 0xFF}
	}
	return color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 0xFF}
}

func fillRect(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.SetNRGBA(x, y, c)
		}
	}
}
