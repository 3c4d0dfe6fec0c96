package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// Colour distance metrics for ColorDistanceMask.
const (
	// MetricRGB is the euclidean distance of 8-bit RGB triples (0..441).
	MetricRGB = "rgb"

	// MetricLab is the CIE76 delta E in CIE L*a*b* (0..~100 for most pairs).
	MetricLab = "lab"
)

// ColorMaskOptions configure the colour-distance mask source.
type ColorMaskOptions struct {
	// Border is the width of the edge band sampled for the background colour.
	// It is clamped to [1, min(width, height)/4].
	Border int `json:"border"`

	// Threshold is the distance above which a pixel is foreground.
	Threshold float64 `json:"threshold"`

	// Metric is MetricRGB or MetricLab.
	Metric string `json:"metric"`

	// OpenIterations and CloseIterations clean the raw mask: opening first,
	// then closing.
	OpenIterations  int `json:"open_iterations"`
	CloseIterations int `json:"close_iterations"`
}

// Validate rejects unusable colour mask options.
func (o ColorMaskOptions) Validate() error {
	if o.Border < 1 {
		return fmt.Errorf("%w: color mask border %d must be >= 1", raster.ErrInvalidParameter, o.Border)
	}
	if !(o.Threshold >= 0) || math.IsInf(o.Threshold, 0) {
		return fmt.Errorf("%w: color mask threshold %v must be >= 0", raster.ErrInvalidParameter, o.Threshold)
	}
	if o.Metric != MetricRGB && o.Metric != MetricLab {
		return fmt.Errorf("%w: unknown color metric %q (want %q or %q)", raster.ErrInvalidParameter, o.Metric, MetricRGB, MetricLab)
	}
	if o.OpenIterations < 0 || o.CloseIterations < 0 {
		return fmt.Errorf("%w: color mask iterations must be >= 0", raster.ErrInvalidParameter)
	}
	return nil
}

// ColorMaskResult is the output of ColorDistanceMask.
type ColorMaskResult struct {
	// Mask marks pixels that differ from the background colour.
	Mask *raster.Raster `json:"-"`

	// BackgroundColor is the estimated background as "#RRGGBB".
	BackgroundColor string `json:"background_color"`

	// BorderPx is the band width actually sampled.
	BorderPx int `json:"border_px"`

	// ForegroundFraction is the share of foreground pixels after cleanup.
	ForegroundFraction float64 `json:"foreground_fraction"`
}

// ColorDistanceMask separates objects from a roughly uniform backdrop without
// a segmentation model.
//
// The background colour is the per-channel median of a band along all four
// edges. Every pixel whose distance to that colour exceeds opts.Threshold is
// foreground. The raw mask is then opened and closed with 3x3 passes.
func ColorDistanceMask(img image.Image, opts ColorMaskOptions) (*ColorMaskResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	m, err := raster.New(w, h)
	if err != nil {
		return nil, err
	}

	band := max(1, min(opts.Border, min(w, h)/4))
	bg := borderMedian(img, band)

	dist := func(c colorful.Color) float64 {
		if opts.Metric == MetricLab {
			return c.DistanceLab(bg) * 100
		}
		return c.DistanceRgb(bg) * 255
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := toColorful(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			if dist(c) > opts.Threshold {
				m.Set(x, y, true)
			}
		}
	}

	m, err = raster.Clean(m, raster.CleanerConfig{Open: true, Iterations: opts.OpenIterations})
	if err != nil {
		return nil, err
	}
	m, err = raster.Clean(m, raster.CleanerConfig{Close: true, Iterations: opts.CloseIterations})
	if err != nil {
		return nil, err
	}

	return &ColorMaskResult{
		Mask:               m,
		BackgroundColor:    bg.Hex(),
		BorderPx:           band,
		ForegroundFraction: float64(m.Count()) / float64(m.Len()),
	}, nil
}

// borderMedian returns the per-channel median colour of the pixels within
// band pixels of any edge.
func borderMedian(img image.Image, band int) colorful.Color {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var rs, gs, bs []float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= band && x < w-band && y >= band && y < h-band {
				continue
			}
			c := toColorful(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			rs = append(rs, c.R)
			gs = append(gs, c.G)
			bs = append(bs, c.B)
		}
	}
	return colorful.Color{R: median(rs), G: median(gs), B: median(bs)}
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sort.Float64s(v)
	mid := len(v) / 2
	if len(v)%2 == 1 {
		return v[mid]
	}
	return (v[mid-1] + v[mid]) / 2
}

// toColorful converts to a non-premultiplied colour, ignoring alpha.
func toColorful(c color.Color) colorful.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return colorful.Color{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
	}
}
