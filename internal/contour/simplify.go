package contour

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// SimplifierConfig controls polygon simplification.
type SimplifierConfig struct {
	// EpsFraction scales the closed perimeter into the Douglas-Peucker
	// tolerance: eps = max(1, EpsFraction * perimeter).
	EpsFraction float64 `json:"eps_fraction"`

	// MaxPoints caps the number of vertices of a simplified polygon.
	MaxPoints int `json:"max_points"`
}

// Validate rejects a non-positive epsilon fraction and point caps below 3.
func (c SimplifierConfig) Validate() error {
	if !(c.EpsFraction > 0) || math.IsInf(c.EpsFraction, 0) {
		return fmt.Errorf("%w: simplifier eps_fraction %v must be > 0", raster.ErrInvalidParameter, c.EpsFraction)
	}
	if c.MaxPoints < 3 {
		return fmt.Errorf("%w: simplifier max_points %d must be >= 3", raster.ErrInvalidParameter, c.MaxPoints)
	}
	return nil
}

// Simplify reduces a closed polygon, given as an open point sequence, to at
// most cfg.MaxPoints integer vertices.
//
// The result has either zero points (no usable polygon) or between 3 and
// cfg.MaxPoints points, and never repeats its first point at the end.
//
// # Algorithm
//
//  1. Fewer than 3 input points: return an empty result.
//  2. eps = max(1, cfg.EpsFraction * closed perimeter).
//  3. Douglas-Peucker on the closed ring with tolerance eps.
//  4. More than cfg.MaxPoints vertices left: keep cfg.MaxPoints indices
//     evenly spaced from the first to the last vertex.
//  5. Round every coordinate to the nearest pixel.
//  6. Drop the last point if it equals the first.
func Simplify(points []Point, cfg SimplifierConfig) ([]Point, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(points) < 3 {
		return nil, nil
	}

	ring := closedRing(points)
	eps := math.Max(1.0, cfg.EpsFraction*perimeter(ring))

	reduced := simplify.DouglasPeucker(eps).LineString(orb.LineString(ring).Clone())

	// The simplifier keeps both ends of the closed line; reopen it.
	open := []orb.Point(reduced)
	if n := len(open); n >= 2 && open[0] == open[n-1] {
		open = open[:n-1]
	}

	if len(open) > cfg.MaxPoints {
		open = resample(open, cfg.MaxPoints)
	}

	out := make([]Point, 0, len(open))
	for _, p := range open {
		out = append(out, Point{X: int(math.Round(p[0])), Y: int(math.Round(p[1]))})
	}
	for len(out) >= 2 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil, nil
	}
	return out, nil
}

// perimeter returns the length of a closed ring.
func perimeter(ring orb.Ring) float64 {
	total := 0.0
	for i := 1; i < len(ring); i++ {
		total += planar.Distance(ring[i-1], ring[i])
	}
	return total
}

// resample picks n indices evenly spaced over pts, first and last included,
// truncating fractional positions.
func resample(pts []orb.Point, n int) []orb.Point {
	out := make([]orb.Point, n)
	last := len(pts) - 1
	for i := 0; i < n; i++ {
		idx := int(float64(i) * float64(last) / float64(n-1))
		out[i] = pts[idx]
	}
	return out
}
