package classify

import (
	"fmt"

	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// Classification reasons.
const (
	ReasonTooSmall    = "too_small"
	ReasonTooLarge    = "too_large"
	ReasonBorderTouch = "border_touch"
	ReasonHoleFrac    = "hole_frac"
	ReasonKept        = "kept"
	ReasonLargest     = "largest"
)

// Classification is the verdict for one mask.
type Classification struct {
	IsBackground bool       `json:"is_background"`
	Reason       string     `json:"reason"`
	Detail       string     `json:"detail,omitempty"`
	Stats        Statistics `json:"stats"`
}

// Classify measures m and applies the ordered background rules.
func Classify(m *raster.Raster, p Params) (Classification, error) {
	if err := p.Validate(); err != nil {
		return Classification{}, err
	}
	if m == nil {
		return Classification{}, fmt.Errorf("%w: mask is nil", raster.ErrInvalidRaster)
	}
	return classify(computeStatistics(m, p), p), nil
}

func classify(s Statistics, p Params) Classification {
	bg := func(reason, detail string) Classification {
		return Classification{IsBackground: true, Reason: reason, Detail: detail, Stats: s}
	}

	switch {
	case s.Area < p.MinAreaPx:
		return bg(ReasonTooSmall, fmt.Sprintf("area %d < min_area_px %d", s.Area, p.MinAreaPx))
	case s.AreaFraction >= p.BgAreaFractionThreshold:
		return bg(ReasonTooLarge, fmt.Sprintf("area_fraction %.3f >= %.3f", s.AreaFraction, p.BgAreaFractionThreshold))
	case s.BorderTouchFraction >= p.BorderTouchFractionThreshold:
		return bg(ReasonBorderTouch, fmt.Sprintf("border_touch_fraction %.3f >= %.3f", s.BorderTouchFraction, p.BorderTouchFractionThreshold))
	case p.EnableHoleHeuristic && s.HoleFraction >= p.HoleFractionThreshold:
		return bg(ReasonHoleFrac, fmt.Sprintf("hole_fraction %.3f >= %.3f", s.HoleFraction, p.HoleFractionThreshold))
	}
	return Classification{Reason: ReasonKept, Stats: s}
}
