package raster

import (
	"fmt"
	"image"
	"sort"
)

// Raster is a width x height grid of booleans where true marks a foreground
// pixel. Pixels are stored row-major in one flat buffer.
type Raster struct {
	w, h int
	pix  []bool
}

// New returns an all-background raster of the given size.
func New(width, height int) (*Raster, error) {
	if err := ValidateDims(width, height); err != nil {
		return nil, err
	}
	return &Raster{w: width, h: height, pix: make([]bool, width*height)}, nil
}

// FromBools wraps a row-major pixel slice. The slice is copied.
func FromBools(width, height int, pix []bool) (*Raster, error) {
	if err := ValidateDims(width, height); err != nil {
		return nil, err
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("%w: %d pixels supplied for %dx%d raster", ErrInvalidRaster, len(pix), width, height)
	}
	r := &Raster{w: width, h: height, pix: make([]bool, len(pix))}
	copy(r.pix, pix)
	return r, nil
}

// FromGray converts a grayscale image into a raster; every non-zero pixel is
// foreground. The image origin is mapped to (0,0).
func FromGray(g *image.Gray) (*Raster, error) {
	b := g.Bounds()
	r, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < r.h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+r.w]
		off := y * r.w
		for x, v := range row {
			r.pix[off+x] = v != 0
		}
	}
	return r, nil
}

// ValidateDims rejects non-positive raster dimensions.
func ValidateDims(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInvalidRaster, width, height)
	}
	return nil
}

// Width returns the number of columns.
func (r *Raster) Width() int { return r.w }

// Height returns the number of rows.
func (r *Raster) Height() int { return r.h }

// Len returns the total number of pixels.
func (r *Raster) Len() int { return len(r.pix) }

// In reports whether (x, y) lies inside the raster.
func (r *Raster) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.w && y < r.h
}

// At returns the pixel at (x, y). Out-of-bounds coordinates read as background.
func (r *Raster) At(x, y int) bool {
	if !r.In(x, y) {
		return false
	}
	return r.pix[y*r.w+x]
}

// Set writes the pixel at (x, y). It is intended for building a raster; once a
// raster is handed to the pipeline it is treated as read-only.
func (r *Raster) Set(x, y int, v bool) {
	if r.In(x, y) {
		r.pix[y*r.w+x] = v
	}
}

// Row returns a read-only view of row y.
func (r *Raster) Row(y int) []bool {
	return r.pix[y*r.w : (y+1)*r.w]
}

// Count returns the number of foreground pixels.
func (r *Raster) Count() int {
	n := 0
	for _, v := range r.pix {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	c := &Raster{w: r.w, h: r.h, pix: make([]bool, len(r.pix))}
	copy(c.pix, r.pix)
	return c
}

// SameSize reports whether both rasters have identical dimensions.
func (r *Raster) SameSize(o *Raster) bool {
	return r.w == o.w && r.h == o.h
}

// Equal reports whether both rasters have the same size and pixels.
func (r *Raster) Equal(o *Raster) bool {
	if !r.SameSize(o) {
		return false
	}
	for i, v := range r.pix {
		if o.pix[i] != v {
			return false
		}
	}
	return true
}

// Bools returns a copy of the row-major pixel buffer.
func (r *Raster) Bools() []bool {
	out := make([]bool, len(r.pix))
	copy(out, r.pix)
	return out
}

// Union returns the logical OR of the given rasters on a width x height grid.
// With no rasters the result is all background.
func Union(width, height int, rasters ...*Raster) (*Raster, error) {
	out, err := New(width, height)
	if err != nil {
		return nil, err
	}
	for i, m := range rasters {
		if m.w != width || m.h != height {
			return nil, fmt.Errorf("%w: raster %d is %dx%d, want %dx%d", ErrInvalidRaster, i, m.w, m.h, width, height)
		}
		for j, v := range m.pix {
			if v {
				out.pix[j] = true
			}
		}
	}
	return out, nil
}

// Instance is one candidate object mask prior to classification.
type Instance struct {
	// Index is the position of the instance in the area-sorted working set.
	Index int

	// Name identifies the mask for diagnostics (usually a file name).
	Name string

	// Mask is the instance raster. It is never modified by the pipeline.
	Mask *Raster

	area int
}

// NewInstance builds an instance and caches its foreground pixel count.
func NewInstance(name string, mask *Raster) Instance {
	in := Instance{Name: name, Mask: mask}
	if mask != nil {
		in.area = mask.Count()
	}
	return in
}

// Area returns the foreground pixel count of the instance mask.
func (in Instance) Area() int {
	if in.area == 0 && in.Mask != nil {
		return in.Mask.Count()
	}
	return in.area
}

// SortInstances returns a copy of instances ordered by descending area.
// Equal areas keep their input order. Index is reassigned to the position in
// the sorted sequence.
func SortInstances(instances []Instance) []Instance {
	out := make([]Instance, len(instances))
	copy(out, instances)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Area() > out[j].Area()
	})
	for i := range out {
		out[i].Index = i
	}
	return out
}
