package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// writePNG encodes img into dir/name and returns the path.
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// grayMask returns a w x h grey image, black except for a white rectangle
// [x0,x1) x [y0,y1).
func grayMask(w, h, x0, y0, x1, y1 int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return g
}

// solidImage returns a w x h opaque image filled with c.
func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.Len() != 0 {
		t.Fatalf("new cache has %d images, want 0", cache.Len())
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := writePNG(t, t.TempDir(), "red.png", solidImage(100, 100, color.RGBA{255, 0, 0, 255}))

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img1.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x100", b.Dx(), b.Dy())
	}

	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache()

	if _, err := cache.Load("/nonexistent/path/to/mask.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := cache.Load(bad); err == nil {
		t.Error("Load should fail for invalid image data")
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", grayMask(10, 10, 0, 0, 5, 5))
	b := writePNG(t, dir, "b.png", grayMask(10, 10, 5, 5, 10, 10))

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}
	if cache.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", cache.Len())
	}

	cache.Evict(a)
	cache.Evict("/nonexistent/path")
	if cache.Len() != 1 {
		t.Errorf("Len after Evict: got %d, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := writePNG(t, t.TempDir(), "grey.png", solidImage(50, 50, color.RGBA{128, 128, 128, 255}))

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := LoadMask(cache, path, 128); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent LoadMask error: %v", err)
	}
}

func TestLoadMask(t *testing.T) {
	cache := NewImageCache()
	path := writePNG(t, t.TempDir(), "mask_000.png", grayMask(40, 30, 10, 5, 20, 25))

	m, err := LoadMask(cache, path, 128)
	if err != nil {
		t.Fatalf("LoadMask failed: %v", err)
	}
	if m.Width() != 40 || m.Height() != 30 {
		t.Fatalf("dimensions: got %dx%d, want 40x30", m.Width(), m.Height())
	}
	if got := m.Count(); got != 200 {
		t.Errorf("Count: got %d, want 200", got)
	}
	if !m.At(10, 5) || !m.At(19, 24) {
		t.Error("rectangle corners should be foreground")
	}
	if m.At(9, 5) || m.At(20, 24) {
		t.Error("pixels outside the rectangle should be background")
	}
}

func TestToMask_Threshold(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 1))
	g.Pix = []uint8{0, 100, 200, 255}

	tests := []struct {
		threshold uint8
		want      int
	}{
		{1, 3},
		{150, 2},
		{250, 1},
	}

	for _, tt := range tests {
		m, err := ToMask(g, tt.threshold)
		if err != nil {
			t.Fatalf("ToMask failed: %v", err)
		}
		if got := m.Count(); got != tt.want {
			t.Errorf("threshold %d: got %d foreground pixels, want %d", tt.threshold, got, tt.want)
		}
	}
}

func TestLoadInstances(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	paths := []string{
		writePNG(t, dir, "small.png", grayMask(50, 50, 0, 0, 5, 5)),
		writePNG(t, dir, "big.png", grayMask(50, 50, 10, 10, 40, 40)),
	}

	instances, w, h, err := LoadInstances(cache, paths, 128)
	if err != nil {
		t.Fatalf("LoadInstances failed: %v", err)
	}
	if w != 50 || h != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", w, h)
	}
	if len(instances) != 2 {
		t.Fatalf("got %d instances, want 2", len(instances))
	}
	if instances[0].Name != "small.png" || instances[0].Area() != 25 {
		t.Errorf("instance 0: got %s/%d, want small.png/25", instances[0].Name, instances[0].Area())
	}
	if instances[1].Index != 1 || instances[1].Area() != 900 {
		t.Errorf("instance 1: got index %d area %d, want 1/900", instances[1].Index, instances[1].Area())
	}
}

func TestLoadInstances_SizeMismatch(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	paths := []string{
		writePNG(t, dir, "a.png", grayMask(50, 50, 0, 0, 5, 5)),
		writePNG(t, dir, "b.png", grayMask(60, 50, 0, 0, 5, 5)),
	}

	_, _, _, err := LoadInstances(cache, paths, 128)
	if !errors.Is(err, raster.ErrInvalidRaster) {
		t.Fatalf("expected ErrInvalidRaster, got %v", err)
	}

	_, _, _, err = LoadInstances(cache, nil, 128)
	if !errors.Is(err, raster.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for no paths, got %v", err)
	}
}

func TestLoadMaskInfo(t *testing.T) {
	cache := NewImageCache()
	g := grayMask(100, 50, 0, 0, 10, 10)
	for y := 30; y < 40; y++ {
		for x := 60; x < 80; x++ {
			g.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	path := writePNG(t, t.TempDir(), "two.png", g)

	info, err := LoadMaskInfo(cache, path, 128)
	if err != nil {
		t.Fatalf("LoadMaskInfo failed: %v", err)
	}

	if info.Width != 100 || info.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 100x50", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.ForegroundPixels != 300 {
		t.Errorf("ForegroundPixels: got %d, want 300", info.ForegroundPixels)
	}
	if info.ForegroundFraction != 0.06 {
		t.Errorf("ForegroundFraction: got %v, want 0.06", info.ForegroundFraction)
	}
	if info.Components != 2 {
		t.Errorf("Components: got %d, want 2", info.Components)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
}

func TestLoadMaskInfo_FormatDetection(t *testing.T) {
	tests := []struct {
		ext    string
		format string
	}{
		{".png", "png"},
		{".jpg", "jpeg"},
		{".jpeg", "jpeg"},
		{".gif", "gif"},
		{".xyz", "unknown"},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			// A valid PNG regardless of extension.
			path := writePNG(t, dir, "mask"+tt.ext, grayMask(10, 10, 0, 0, 2, 2))

			info, err := LoadMaskInfo(NewImageCache(), path, 128)
			if err != nil {
				t.Fatalf("LoadMaskInfo failed: %v", err)
			}
			if info.Format != tt.format {
				t.Errorf("Format for %s: got %s, want %s", tt.ext, info.Format, tt.format)
			}
		})
	}
}
