package classify

import (
	"fmt"
	"math"

	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// Params holds the classifier thresholds.
type Params struct {
	// MinAreaPx is the smallest foreground area, in pixels, worth keeping.
	MinAreaPx int `json:"min_area_px"`

	// BgAreaFractionThreshold marks masks covering at least this share of the
	// raster as background.
	BgAreaFractionThreshold float64 `json:"bg_area_fraction_threshold"`

	// BorderBandPx is the width of the edge band used for the border-touch
	// fraction.
	BorderBandPx int `json:"border_band_px"`

	// BorderTouchFractionThreshold marks masks with at least this share of
	// pixels in the edge band as background.
	BorderTouchFractionThreshold float64 `json:"border_touch_fraction_threshold"`

	// EnableHoleHeuristic turns the hole rule on.
	EnableHoleHeuristic bool `json:"enable_hole_heuristic"`

	// HoleFractionThreshold marks masks whose enclosed background reaches this
	// share of their area as background.
	HoleFractionThreshold float64 `json:"hole_fraction_threshold"`

	// MinHoleAreaPx ignores enclosed regions smaller than this many pixels.
	MinHoleAreaPx int `json:"min_hole_area_px"`
}

// DefaultParams returns the thresholds tuned for "everything" segmentation
// output on tabletop photos.
func DefaultParams() Params {
	return Params{
		MinAreaPx:                    150,
		BgAreaFractionThreshold:      0.45,
		BorderBandPx:                 3,
		BorderTouchFractionThreshold: 0.10,
		EnableHoleHeuristic:          true,
		HoleFractionThreshold:        0.08,
		MinHoleAreaPx:                80,
	}
}

// Validate rejects negative areas, fractions outside [0,1] and a border band
// narrower than one pixel.
func (p Params) Validate() error {
	if p.MinAreaPx < 0 {
		return fmt.Errorf("%w: min_area_px %d must be >= 0", raster.ErrInvalidParameter, p.MinAreaPx)
	}
	if p.MinHoleAreaPx < 0 {
		return fmt.Errorf("%w: min_hole_area_px %d must be >= 0", raster.ErrInvalidParameter, p.MinHoleAreaPx)
	}
	if p.BorderBandPx < 1 {
		return fmt.Errorf("%w: border_band_px %d must be >= 1", raster.ErrInvalidParameter, p.BorderBandPx)
	}

	fractions := []struct {
		name  string
		value float64
	}{
		{"bg_area_fraction_threshold", p.BgAreaFractionThreshold},
		{"border_touch_fraction_threshold", p.BorderTouchFractionThreshold},
		{"hole_fraction_threshold", p.HoleFractionThreshold},
	}
	for _, f := range fractions {
		if !(f.value >= 0 && f.value <= 1) {
			return fmt.Errorf("%w: %s %v must be within [0,1]", raster.ErrInvalidParameter, f.name, f.value)
		}
	}
	return nil
}

// Statistics are the geometric measurements of one mask.
type Statistics struct {
	Area                int     `json:"area"`
	AreaFraction        float64 `json:"area_fraction"`
	BorderTouchFraction float64 `json:"border_touch_fraction"`
	HoleFraction        float64 `json:"hole_fraction"`
}

// ComputeStatistics measures m. HoleFraction is 0 when the hole heuristic is
// disabled or the mask is empty.
func ComputeStatistics(m *raster.Raster, p Params) (Statistics, error) {
	if err := p.Validate(); err != nil {
		return Statistics{}, err
	}
	if m == nil {
		return Statistics{}, fmt.Errorf("%w: mask is nil", raster.ErrInvalidRaster)
	}
	return computeStatistics(m, p), nil
}

func computeStatistics(m *raster.Raster, p Params) Statistics {
	area := m.Count()
	s := Statistics{
		Area:         area,
		AreaFraction: float64(area) / float64(m.Len()),
	}
	if area == 0 {
		return s
	}

	s.BorderTouchFraction = float64(borderCount(m, p.BorderBandPx)) / float64(area)

	if p.EnableHoleHeuristic {
		s.HoleFraction = math.Min(1, float64(holeArea(m, p.MinHoleAreaPx))/float64(area))
	}
	return s
}

// borderCount counts foreground pixels within band pixels of any edge.
func borderCount(m *raster.Raster, band int) int {
	w, h := m.Width(), m.Height()
	n := 0
	for y := 0; y < h; y++ {
		row := m.Row(y)
		inBandRow := y < band || y >= h-band
		for x, v := range row {
			if v && (inBandRow || x < band || x >= w-band) {
				n++
			}
		}
	}
	return n
}

// holeArea sums the enclosed background regions of at least minHole pixels.
func holeArea(m *raster.Raster, minHole int) int {
	holes := raster.EnclosedBackground(m)
	total := 0
	for _, c := range raster.Label8(holes).Components {
		if c.Area >= minHole {
			total += c.Area
		}
	}
	return total
}
