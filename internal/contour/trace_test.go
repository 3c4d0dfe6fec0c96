package contour

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// squareMask returns a w x h raster with a solid size x size square whose
// top-left pixel is (x0, y0).
func squareMask(t *testing.T, w, h, x0, y0, size int) *raster.Raster {
	t.Helper()
	m, err := raster.New(w, h)
	require.NoError(t, err)
	fillRect(m, x0, y0, x0+size, y0+size, true)
	return m
}

func fillRect(m *raster.Raster, x0, y0, x1, y1 int, v bool) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(x, y, v)
		}
	}
}

func TestTrace_CenteredSquare(t *testing.T) {
	// 20x20 square centred on (40,40) in a 100x100 raster.
	m := squareMask(t, 100, 100, 30, 30, 20)

	polys := Trace(m)
	require.Len(t, polys, 1)
	assert.InDelta(t, 400.0, polys[0].Area, 1e-9)
	assert.Equal(t, []Point{{30, 30}, {50, 30}, {50, 50}, {30, 50}}, polys[0].Points)
}

func TestTrace_Empty(t *testing.T) {
	m, err := raster.New(10, 10)
	require.NoError(t, err)

	polys := Trace(m)
	assert.NotNil(t, polys)
	assert.Empty(t, polys)
}

func TestTrace_SinglePixel(t *testing.T) {
	m := squareMask(t, 3, 3, 0, 0, 1)

	polys := Trace(m)
	require.Len(t, polys, 1)
	assert.Equal(t, []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, polys[0].Points)
	assert.InDelta(t, 1.0, polys[0].Area, 1e-9)
}

func TestTrace_DiagonalNeighboursAreOneComponent(t *testing.T) {
	m, err := raster.New(4, 4)
	require.NoError(t, err)
	m.Set(0, 0, true)
	m.Set(1, 1, true)

	polys := Trace(m)
	require.Len(t, polys, 1)
	assert.InDelta(t, 2.0, polys[0].Area, 1e-9)
	assert.Len(t, polys[0].Points, 8)
}

func TestTrace_TouchesBorder(t *testing.T) {
	m := squareMask(t, 10, 10, 0, 0, 10)

	polys := Trace(m)
	require.Len(t, polys, 1)
	assert.Equal(t, []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, polys[0].Points)
	assert.InDelta(t, 100.0, polys[0].Area, 1e-9)
}

func TestTrace_RingReturnsOuterOnly(t *testing.T) {
	m := squareMask(t, 50, 50, 10, 10, 20)
	fillRect(m, 15, 15, 25, 25, false)

	polys := Trace(m)
	require.Len(t, polys, 1)
	assert.Len(t, polys[0].Points, 4)
	assert.InDelta(t, 400.0, polys[0].Area, 1e-9, "area includes the hole")
}

func TestTrace_LShape(t *testing.T) {
	m, err := raster.New(10, 10)
	require.NoError(t, err)
	fillRect(m, 1, 1, 3, 6, true)
	fillRect(m, 3, 4, 6, 6, true)

	polys := Trace(m)
	require.Len(t, polys, 1)
	assert.Equal(t, []Point{{1, 1}, {3, 1}, {3, 4}, {6, 4}, {6, 6}, {1, 6}}, polys[0].Points)
	assert.InDelta(t, 16.0, polys[0].Area, 1e-9)
}

func TestTrace_DeterministicOrder(t *testing.T) {
	m := squareMask(t, 60, 60, 40, 5, 5)
	fillRect(m, 5, 20, 15, 30, true)
	fillRect(m, 30, 40, 33, 43, true)

	first := Trace(m)
	second := Trace(m)
	require.Len(t, first, 3)
	assert.Equal(t, first, second)

	assert.Equal(t, Point{40, 5}, first[0].Points[0])
	assert.Equal(t, Point{5, 20}, first[1].Points[0])
	assert.Equal(t, Point{30, 40}, first[2].Points[0])
}
