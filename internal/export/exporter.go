package export

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/mask-contour-mcp/internal/contour"
	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// Options control contour export.
type Options struct {
	Cleaner    raster.CleanerConfig
	Simplifier contour.SimplifierConfig

	// MinContourAreaPx drops traced contours with a smaller area.
	MinContourAreaPx float64

	// Notes is copied into the payload.
	Notes string

	// Workers bounds the number of instances exported concurrently.
	// Zero or negative means runtime.NumCPU().
	Workers int

	// Logger receives per-contour diagnostics at debug level.
	// Nil means slog.Default().
	Logger *slog.Logger
}

// Validate checks every option before any work is done.
func (o Options) Validate() error {
	if err := o.Cleaner.Validate(); err != nil {
		return err
	}
	if err := o.Simplifier.Validate(); err != nil {
		return err
	}
	if !(o.MinContourAreaPx >= 0) || math.IsInf(o.MinContourAreaPx, 0) {
		return fmt.Errorf("%w: min_contour_area_px %v must be >= 0", raster.ErrInvalidParameter, o.MinContourAreaPx)
	}
	return nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Union vectorizes every contour of a single (usually merged) mask.
// Polygons carry no mask index.
func Union(m *raster.Raster, w, h int, opts Options) (*Payload, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := raster.ValidateDims(w, h); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: union mask is nil", raster.ErrInvalidRaster)
	}
	if m.Width() != w || m.Height() != h {
		return nil, fmt.Errorf("%w: union mask is %dx%d, image is %dx%d", raster.ErrInvalidRaster, m.Width(), m.Height(), w, h)
	}

	log := opts.logger()

	cleaned, err := raster.Clean(m, opts.Cleaner)
	if err != nil {
		return nil, err
	}

	var polygons []Polygon
	for i, raw := range contour.Trace(cleaned) {
		poly, ok, err := vectorize(raw, opts)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Debug("contour dropped", "contour", i, "area_px", raw.Area, "points", len(raw.Points))
			continue
		}
		polygons = append(polygons, poly)
	}

	return NewPayload(w, h, polygons, notesFor(opts.Notes, len(polygons))), nil
}

// PerInstance vectorizes each instance independently and keeps only the
// largest contour of each one. The first traced contour wins ties. Every
// polygon is tagged with the Index of its instance.
//
// Instances are processed concurrently; the output does not depend on
// scheduling.
func PerInstance(instances []raster.Instance, w, h int, opts Options) (*Payload, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := raster.ValidateDims(w, h); err != nil {
		return nil, err
	}
	for _, in := range instances {
		if in.Mask == nil {
			return nil, fmt.Errorf("%w: instance %d (%s) has no mask", raster.ErrInvalidRaster, in.Index, in.Name)
		}
		if in.Mask.Width() != w || in.Mask.Height() != h {
			return nil, fmt.Errorf("%w: instance %d (%s) is %dx%d, image is %dx%d",
				raster.ErrInvalidRaster, in.Index, in.Name, in.Mask.Width(), in.Mask.Height(), w, h)
		}
	}

	log := opts.logger()
	slots := make([]*Polygon, len(instances))

	var g errgroup.Group
	g.SetLimit(workerLimit(opts.Workers))
	for i := range instances {
		i := i // per-iteration copy; go.mod targets go 1.21
		in := instances[i]
		g.Go(func() error {
			cleaned, err := raster.Clean(in.Mask, opts.Cleaner)
			if err != nil {
				return fmt.Errorf("instance %d (%s): %w", in.Index, in.Name, err)
			}

			raw, found := largest(contour.Trace(cleaned))
			if !found {
				log.Debug("instance has no contour", "mask_index", in.Index, "name", in.Name)
				return nil
			}

			poly, ok, err := vectorize(raw, opts)
			if err != nil {
				return fmt.Errorf("instance %d (%s): %w", in.Index, in.Name, err)
			}
			if !ok {
				log.Debug("contour dropped", "mask_index", in.Index, "name", in.Name,
					"area_px", raw.Area, "points", len(raw.Points))
				return nil
			}

			idx := in.Index
			poly.MaskIndex = &idx
			slots[i] = &poly
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	polygons := make([]Polygon, 0, len(slots))
	for _, p := range slots {
		if p != nil {
			polygons = append(polygons, *p)
		}
	}
	return NewPayload(w, h, polygons, notesFor(opts.Notes, len(polygons))), nil
}

// vectorize filters a traced contour by area and simplifies it. ok is false
// when the contour is too small or degenerates below 3 points.
func vectorize(raw contour.RawPolygon, opts Options) (Polygon, bool, error) {
	if raw.Area < opts.MinContourAreaPx {
		return Polygon{}, false, nil
	}
	pts, err := contour.Simplify(raw.Points, opts.Simplifier)
	if err != nil {
		return Polygon{}, false, err
	}
	if len(pts) < 3 {
		return Polygon{}, false, nil
	}
	return Polygon{
		Label:  LabelObject,
		Outer:  pts,
		Holes:  [][]contour.Point{},
		AreaPx: raw.Area,
	}, true, nil
}

// largest returns the contour with the greatest area; the earliest wins ties.
func largest(polys []contour.RawPolygon) (contour.RawPolygon, bool) {
	if len(polys) == 0 {
		return contour.RawPolygon{}, false
	}
	best := 0
	for i := 1; i < len(polys); i++ {
		if polys[i].Area > polys[best].Area {
			best = i
		}
	}
	return polys[best], true
}

func notesFor(notes string, n int) string {
	if n > 0 {
		return notes
	}
	const empty = "No contour survived cleanup, the area filter and simplification."
	if notes == "" {
		return empty
	}
	return notes + " " + empty
}

func workerLimit(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
