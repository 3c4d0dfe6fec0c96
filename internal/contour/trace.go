package contour

import (
	"math"

	"github.com/paulmach/orb/planar"

	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// Walking directions on the pixel-corner lattice: east, south, west, north.
// Turning right is +1, turning left is +3 (mod 4).
var (
	stepX = [4]int{1, 0, -1, 0}
	stepY = [4]int{0, 1, 0, -1}

	// Offsets, relative to the current vertex, of the two pixels ahead of
	// the walker: the one on its left hand and the one on its right hand.
	aheadLeftX  = [4]int{0, 0, -1, -1}
	aheadLeftY  = [4]int{-1, 0, 0, -1}
	aheadRightX = [4]int{0, -1, -1, 0}
	aheadRightY = [4]int{0, 0, -1, -1}
)

const east = 0

// Trace extracts the outer boundary of every 8-connected foreground component
// of m. Inner boundaries (holes) are not returned, but the area of each
// polygon includes the holes it encloses.
//
// Polygons are returned in row-major discovery order of their components.
// An all-background raster yields an empty slice.
//
// # Algorithm
//
// For each component, the walk starts at the top-left corner of its first
// pixel heading east, with the component on the right-hand side. At every
// lattice vertex the walker inspects the two pixels ahead:
//
//  1. the ahead-left pixel belongs to the component: turn left
//     (this also joins pixels that only touch diagonally)
//  2. otherwise the ahead-right pixel belongs to it: go straight
//  3. otherwise: turn right
//
// Only vertices where the direction changes are emitted, so straight runs
// collapse to their end points. The walk ends when it returns to the start
// vertex, which has exactly one foreground pixel around it and is therefore
// visited once.
func Trace(m *raster.Raster) []RawPolygon {
	labels := raster.Label8(m)
	polys := make([]RawPolygon, 0, len(labels.Components))

	for _, c := range labels.Components {
		pts := traceOuter(labels, c)
		polys = append(polys, RawPolygon{
			Points: pts,
			Area:   ringArea(pts),
		})
	}
	return polys
}

func traceOuter(l *raster.Labels, c raster.Component) []Point {
	start := Point{X: c.StartX, Y: c.StartY}
	pts := []Point{start}

	in := func(x, y int) bool { return l.Is(x, y, c.Label) }

	v := start
	d := east
	maxSteps := 4*(l.Width+1)*(l.Height+1) + 4
	for steps := 0; steps < maxSteps; steps++ {
		v = Point{X: v.X + stepX[d], Y: v.Y + stepY[d]}
		if v == start {
			break
		}

		var nd int
		switch {
		case in(v.X+aheadLeftX[d], v.Y+aheadLeftY[d]):
			nd = (d + 3) % 4
		case in(v.X+aheadRightX[d], v.Y+aheadRightY[d]):
			nd = d
		default:
			nd = (d + 1) % 4
		}
		if nd != d {
			pts = append(pts, v)
		}
		d = nd
	}
	return pts
}

// ringArea returns the unsigned shoelace area of an open point sequence.
func ringArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	return math.Abs(planar.Area(closedRing(pts)))
}
