package raster

// 8-neighbourhood offsets, row-major order.
var (
	dx8 = [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy8 = [8]int{-1, -1, -1, 0, 0, 1, 1, 1}
)

// 4-neighbourhood offsets.
var (
	dx4 = [4]int{1, 0, -1, 0}
	dy4 = [4]int{0, 1, 0, -1}
)

// Component describes one connected foreground region.
type Component struct {
	// Label is the 1-based label stored in Labels.IDs for this component.
	Label int

	// StartX, StartY is the first pixel of the component in row-major order,
	// i.e. its topmost pixel, leftmost among ties.
	StartX, StartY int

	// Area is the number of pixels in the component.
	Area int
}

// Labels is the result of connected-component labelling.
type Labels struct {
	Width, Height int

	// IDs holds one label per pixel, row-major; 0 means background.
	IDs []int32

	// Components are listed in discovery (row-major) order.
	Components []Component
}

// Is reports whether (x, y) belongs to the component with the given label.
// Out-of-bounds coordinates never belong to any component.
func (l *Labels) Is(x, y, label int) bool {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return false
	}
	return int(l.IDs[y*l.Width+x]) == label
}

// Label8 labels the 8-connected foreground components of m.
// Components are numbered from 1 in row-major discovery order.
func Label8(m *Raster) *Labels {
	w, h := m.w, m.h
	l := &Labels{Width: w, Height: h, IDs: make([]int32, w*h)}

	queue := make([]int, 0, 1024)
	next := int32(0)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if !m.pix[idx] || l.IDs[idx] != 0 {
				continue
			}

			next++
			l.IDs[idx] = next
			queue = append(queue[:0], idx)
			size := 0

			for len(queue) > 0 {
				curr := queue[0]
				queue = queue[1:]
				size++

				cx, cy := curr%w, curr/w
				for d := 0; d < 8; d++ {
					nx, ny := cx+dx8[d], cy+dy8[d]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					ni := ny*w + nx
					if m.pix[ni] && l.IDs[ni] == 0 {
						l.IDs[ni] = next
						queue = append(queue, ni)
					}
				}
			}

			l.Components = append(l.Components, Component{
				Label:  int(next),
				StartX: x,
				StartY: y,
				Area:   size,
			})
		}
	}

	return l
}

// EnclosedBackground returns the background pixels of m that cannot be
// reached from outside the raster through 4-connected background pixels.
// These are the holes of the foreground.
func EnclosedBackground(m *Raster) *Raster {
	w, h := m.w, m.h
	outside := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))

	seed := func(x, y int) {
		i := y*w + x
		if !m.pix[i] && !outside[i] {
			outside[i] = true
			queue = append(queue, i)
		}
	}
	for x := 0; x < w; x++ {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := 0; y < h; y++ {
		seed(0, y)
		seed(w-1, y)
	}

	for len(queue) > 0 {
		curr := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		cx, cy := curr%w, curr/w
		for d := 0; d < 4; d++ {
			nx, ny := cx+dx4[d], cy+dy4[d]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			ni := ny*w + nx
			if !m.pix[ni] && !outside[ni] {
				outside[ni] = true
				queue = append(queue, ni)
			}
		}
	}

	holes := &Raster{w: w, h: h, pix: make([]bool, w*h)}
	for i, v := range m.pix {
		holes.pix[i] = !v && !outside[i]
	}
	return holes
}
