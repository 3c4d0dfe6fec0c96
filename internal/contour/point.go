package contour

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// Point is an integer pixel coordinate. It serialises as a two element JSON
// array [x, y].
type Point struct {
	X int
	Y int
}

// MarshalJSON encodes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON decodes a point from [x, y].
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []int
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("point must have 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// RawPolygon is a traced boundary before simplification.
type RawPolygon struct {
	// Points is the open boundary ring (first point not repeated at the end).
	Points []Point

	// Area is the unsigned area enclosed by the boundary, in square pixels.
	Area float64
}

// closedRing converts an open point sequence into a closed orb ring.
func closedRing(points []Point) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{float64(p.X), float64(p.Y)})
	}
	if len(points) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}
