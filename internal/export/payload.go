package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ironsheep/mask-contour-mcp/internal/contour"
)

// LabelObject is the label given to every exported polygon.
const LabelObject = "object"

// Polygon is one simplified object outline in pixel coordinates.
type Polygon struct {
	Label string `json:"label"`

	// Outer is the open boundary ring: at least 3 points, first != last.
	Outer []contour.Point `json:"outer"`

	// Holes is always empty; inner boundaries are not exported.
	Holes [][]contour.Point `json:"holes"`

	// AreaPx is the area of the traced (unsimplified) boundary.
	AreaPx float64 `json:"area_px"`

	// MaskIndex is the area-sorted index of the source instance. It is only
	// set in per-instance mode.
	MaskIndex *int `json:"mask_index,omitempty"`
}

// Payload is the exported result for one image.
type Payload struct {
	ImageW   int       `json:"image_w"`
	ImageH   int       `json:"image_h"`
	Polygons []Polygon `json:"polygons"`
	Notes    string    `json:"notes"`
}

// NewPayload returns a payload whose polygons are sorted by area, largest
// first. Polygons with equal area keep their relative order.
func NewPayload(w, h int, polygons []Polygon, notes string) *Payload {
	out := make([]Polygon, 0, len(polygons))
	for _, p := range polygons {
		if p.Holes == nil {
			p.Holes = [][]contour.Point{}
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AreaPx > out[j].AreaPx
	})
	return &Payload{ImageW: w, ImageH: h, Polygons: out, Notes: notes}
}

// MarshalJSON encodes the payload; a nil polygon list is written as [].
func (p Payload) MarshalJSON() ([]byte, error) {
	type plain Payload
	if p.Polygons == nil {
		p.Polygons = []Polygon{}
	}
	return json.Marshal(plain(p))
}

// MarshalJSON encodes the polygon; nil holes are written as [].
func (p Polygon) MarshalJSON() ([]byte, error) {
	type plain Polygon
	if p.Holes == nil {
		p.Holes = [][]contour.Point{}
	}
	return json.Marshal(plain(p))
}

// MarshalIndent encodes the payload with two-space indentation.
func (p *Payload) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// WriteJSON writes the payload to path with two-space indentation.
func WriteJSON(path string, p *Payload) error {
	data, err := p.MarshalIndent()
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}
