package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"brandforge/internal/colorspace"
)

// PaletteEntry is one labeled swatch on a palette board.
type PaletteEntry struct {
	Hex  string
	Role string
	Name string
}

// ShadeRow is one color's shade scale on a shades board.
type ShadeRow struct {
	Label string
	Stops map[int]string
}

// SheetCell is one labeled tile on a contact sheet.
type SheetCell struct {
	Path  string
	Label string
}

var (
	boardBackground = color.NRGBA{R: 0xFA, G: 0xFA, B: 0xF8, A: 0xFF}
	boardInk        = color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xFF}
	boardSubtle     = color.NRGBA{R: 0x77, G: 0x77, B: 0x77, A: 0xFF}
	boardRule       = color.NRGBA{R: 0xE2, G: 0xE2, B: 0xDE, A: 0xFF}
	placeholderText = color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xFF}

	sheetBackground = color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xFF}
	sheetSlot       = color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xFF}
	sheetSlotText   = color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xFF}
	sheetLabel      = color.NRGBA{R: 0xAA, G: 0xAA, B: 0xAA, A: 0xFF}
	sheetHeader     = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// PaletteBoard renders the enriched palette as labeled swatch rows:
// the color block on the left, hex, name, and role beside it.
func PaletteBoard(title string, entries []PaletteEntry) *image.NRGBA {
	const (
		width    = 800
		margin   = 36
		swatchW  = 150
		swatchH  = 84
		rowPitch = 104
		headerH  = 52
	)
	height := margin*2 + headerH + rowPitch*len(entries)
	board := image.NewNRGBA(image.Rect(0, 0, width, height))
	fillRect(board, board.Bounds(), boardBackground)

	drawText(board, margin, margin+16, strings.ToUpper(title), boardInk)
	fillRect(board, image.Rect(margin, margin+28, width-margin, margin+29), boardRule)

	y := margin + headerH
	for _, entry := range entries {
		fillRect(board, image.Rect(margin, y, margin+swatchW, y+swatchH), hexColor(entry.Hex))
		textX := margin + swatchW + 28
		drawText(board, textX, y+22, strings.ToUpper(entry.Hex), boardInk)
		if entry.Name != "" {
			drawText(board, textX, y+44, entry.Name, boardInk)
		}
		if entry.Role != "" {
			drawText(board, textX, y+66, entry.Role, boardSubtle)
		}
		y += rowPitch
	}
	return board
}

// ShadesBoard renders one shade scale per row, stops ascending left
// to right, stop numbers under the cells.
func ShadesBoard(rows []ShadeRow) *image.NRGBA {
	const (
		margin   = 36
		cell     = 62
		gap      = 6
		labelH   = 26
		numbersH = 20
		rowGap   = 24
	)
	width := margin*2 + cell*len(colorspace.ShadeStops) + gap*(len(colorspace.ShadeStops)-1)
	rowBlock := labelH + cell + numbersH + rowGap
	height := margin*2 + rowBlock*len(rows) - rowGap
	board := image.NewNRGBA(image.Rect(0, 0, width, height))
	fillRect(board, board.Bounds(), boardBackground)

	y := margin
	for _, row := range rows {
		drawText(board, margin, y+14, row.Label, boardInk)
		cellY := y + labelH
		x := margin
		for _, stop := range colorspace.ShadeStops {
			hex, ok := row.Stops[stop]
			if ok {
				fillRect(board, image.Rect(x, cellY, x+cell, cellY+cell), hexColor(hex))
			}
			num := fmt.Sprintf("%d", stop)
			numW := textWidth(num)
			drawText(board, x+(cell-numW)/2, cellY+cell+14, num, boardSubtle)
			x += cell + gap
		}
		y += rowBlock
	}
	return board
}

// ContactSheet lays labeled thumbnails in one row on a dark board,
// title across the top. Cells whose file is missing render as pending
// slots and unreadable files as error slots, so the sheet always
// shows the full set.
func ContactSheet(title string, cells []SheetCell, thumbW, thumbH int) *image.NRGBA {
	const (
		padding = 48
		gap     = 32
		labelH  = 40
		headerH = 72
	)
	width := padding * 2
	if n := len(cells); n > 0 {
		width += thumbW*n + gap*(n-1)
	}
	height := headerH + padding + thumbH + labelH + padding
	sheet := image.NewNRGBA(image.Rect(0, 0, width, height))
	fillRect(sheet, sheet.Bounds(), sheetBackground)

	drawText(sheet, padding, headerH/2+6, strings.ToUpper(title), sheetHeader)

	x := padding
	y := headerH + padding
	for _, cell := range cells {
		slot := image.Rect(x, y, x+thumbW, y+thumbH)
		if cell.Path == "" {
			drawSlot(sheet, slot, "[pending]")
		} else if src, err := Load(cell.Path); err != nil {
			drawSlot(sheet, slot, "[error]")
		} else {
			coverThumb(sheet, slot, src)
		}
		lw := textWidth(cell.Label)
		drawText(sheet, x+(thumbW-lw)/2, y+thumbH+24, cell.Label, sheetLabel)
		x += thumbW + gap
	}
	return sheet
}

func drawSlot(dst *image.NRGBA, r image.Rectangle, label string) {
	fillRect(dst, r, sheetSlot)
	lw := textWidth(label)
	drawText(dst, r.Min.X+(r.Dx()-lw)/2, r.Min.Y+r.Dy()/2+4, label, sheetSlotText)
}

// coverThumb scales src to cover r, center-cropping whichever axis
// overflows so mixed-aspect sources never distort.
func coverThumb(dst *image.NRGBA, r image.Rectangle, src image.Image) {
	sb := src.Bounds()
	rw, rh := r.Dx(), r.Dy()
	sw, sh := sb.Dx(), sb.Dy()
	if rw <= 0 || rh <= 0 || sw <= 0 || sh <= 0 {
		return
	}
	crop := sb
	if sw*rh > sh*rw {
		cw := sh * rw / rh
		x0 := sb.Min.X + (sw-cw)/2
		crop = image.Rect(x0, sb.Min.Y, x0+cw, sb.Max.Y)
	} else if sw*rh < sh*rw {
		ch := sw * rh / rw
		y0 := sb.Min.Y + (sh-ch)/2
		crop = image.Rect(sb.Min.X, y0, sb.Max.X, y0+ch)
	}
	draw.CatmullRom.Scale(dst, r, src, crop, draw.Over, nil)
}

// Placeholder renders the flat stand-in written when an asset fails:
// a solid field with the asset label centered in gray.
func Placeholder(w, h int, bgHex, label string) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fillRect(img, img.Bounds(), hexColor(bgHex))
	text := "[" + label + "]"
	drawText(img, (w-textWidth(text))/2, h/2+4, text, placeholderText)
	return img
}

func drawText(dst *image.NRGBA, x, y int, s string, c color.NRGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}
