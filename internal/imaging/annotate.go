package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/mask-contour-mcp/internal/contour"
	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// DefaultOutlineColor is used when DrawOutlines gets an empty colour.
const DefaultOutlineColor = "#ffd400"

// Outline is one exported polygon to draw.
type Outline struct {
	Outer []contour.Point
	Holes [][]contour.Point

	// Label is drawn next to the first outer vertex when not empty.
	Label string
}

// DrawOutlines draws the rings of every outline on a copy of img and labels
// them. Coordinates are pixel-corner coordinates, so a vertex at the right or
// bottom edge is drawn on the last pixel column or row.
func DrawOutlines(img image.Image, outlines []Outline, hexColor string) (*image.NRGBA, error) {
	if hexColor == "" {
		hexColor = DefaultOutlineColor
	}
	c, err := colorful.Hex(hexColor)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid outline color %q", raster.ErrInvalidParameter, hexColor)
	}
	r, g, b := c.RGB255()
	lineColor := color.NRGBA{R: r, G: g, B: b, A: 255}

	out := imaging.Clone(img)
	for _, o := range outlines {
		drawRing(out, o.Outer, lineColor)
		for _, hole := range o.Holes {
			drawRing(out, hole, lineColor)
		}
	}
	// Labels go on top of every outline.
	for _, o := range outlines {
		if o.Label != "" && len(o.Outer) > 0 {
			drawLabel(out, o.Outer[0], o.Label, lineColor)
		}
	}
	return out, nil
}

func drawRing(img *image.NRGBA, ring []contour.Point, c color.NRGBA) {
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		drawLine(img, a.X, a.Y, b.X, b.Y, c)
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		setClamped(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func setClamped(img *image.NRGBA, x, y int, c color.NRGBA) {
	b := img.Bounds()
	x = min(max(x, b.Min.X), b.Max.X-1)
	y = min(max(y, b.Min.Y), b.Max.Y-1)
	img.SetNRGBA(x, y, c)
}

// drawLabel writes text in basicfont 7x13 on a dark box anchored at p.
func drawLabel(img *image.NRGBA, p contour.Point, text string, c color.NRGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(c), Face: face}
	width := d.MeasureString(text).Ceil()
	height := face.Height

	b := img.Bounds()
	x := min(max(p.X+2, b.Min.X), b.Max.X-width-2)
	y := min(max(p.Y+2, b.Min.Y), b.Max.Y-height-2)
	box := image.Rect(x-1, y-1, x+width+1, y+height+1).Intersect(b)
	draw.Draw(img, box, image.NewUniform(color.NRGBA{A: 200}), image.Point{}, draw.Over)

	d.Dot = fixed.P(x, y+face.Ascent)
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
