package raster

import "fmt"

// CleanerConfig controls the morphological cleanup applied before tracing.
type CleanerConfig struct {
	// Open removes isolated foreground specks (erosion then dilation).
	Open bool `json:"open"`

	// Close fills small background gaps and pinholes (dilation then erosion).
	// It can merge nearby objects into one blob.
	Close bool `json:"close"`

	// Iterations is the number of erosion/dilation passes per operation.
	// Zero disables cleanup.
	Iterations int `json:"iterations"`
}

// Validate rejects negative iteration counts.
func (c CleanerConfig) Validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("%w: cleaner iterations %d must be >= 0", ErrInvalidParameter, c.Iterations)
	}
	return nil
}

// Clean applies a 3x3 opening (if cfg.Open) and then a 3x3 closing (if
// cfg.Close) to m, each with cfg.Iterations passes, and returns the result as
// a new raster.
//
// Pixels outside the raster never erode an edge pixel and never dilate into
// the raster, so a foreground region touching the border keeps its extent.
func Clean(m *Raster, cfg CleanerConfig) (*Raster, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := m.Clone()
	if cfg.Iterations == 0 {
		return out, nil
	}
	if cfg.Open {
		out = repeat(out, erode, cfg.Iterations)
		out = repeat(out, dilate, cfg.Iterations)
	}
	if cfg.Close {
		out = repeat(out, dilate, cfg.Iterations)
		out = repeat(out, erode, cfg.Iterations)
	}
	return out, nil
}

func repeat(m *Raster, op func(*Raster) *Raster, n int) *Raster {
	for i := 0; i < n; i++ {
		m = op(m)
	}
	return m
}

// erode keeps a pixel only if every in-bounds pixel of its 3x3 neighbourhood
// is foreground.
func erode(m *Raster) *Raster {
	out := &Raster{w: m.w, h: m.h, pix: make([]bool, len(m.pix))}
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if !m.pix[y*m.w+x] {
				continue
			}
			keep := true
			for dy := -1; dy <= 1 && keep; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if m.In(nx, ny) && !m.pix[ny*m.w+nx] {
						keep = false
						break
					}
				}
			}
			out.pix[y*m.w+x] = keep
		}
	}
	return out
}

// dilate sets a pixel if any in-bounds pixel of its 3x3 neighbourhood is
// foreground.
func dilate(m *Raster) *Raster {
	out := &Raster{w: m.w, h: m.h, pix: make([]bool, len(m.pix))}
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if !m.pix[y*m.w+x] {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if m.In(nx, ny) {
						out.pix[ny*m.w+nx] = true
					}
				}
			}
		}
	}
	return out
}
