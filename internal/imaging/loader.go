package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"

	"github.com/anthonynsimon/bild/segment"

	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// ImageCache provides thread-safe caching of decoded images keyed by path.
//
// Mask files are typically read more than once per session (info, classify,
// vectorize, overlay), so the cache saves repeated disk reads and decodes.
// Cached images remain in memory until Evict or Clear is called.
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/mask_000.png")
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load returns the decoded image at path, reading it from disk on first use.
// PNG, JPEG and GIF are supported.
//
// The exact path string is the cache key: a relative and an absolute path to
// the same file are cached separately.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes the image cached under path, if any.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ToMask thresholds an image into a binary raster: pixels whose grey level is
// at least threshold become foreground. The image origin maps to (0,0).
func ToMask(img image.Image, threshold uint8) (*raster.Raster, error) {
	b := img.Bounds()
	if err := raster.ValidateDims(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	return raster.FromGray(segment.Threshold(img, threshold))
}

// LoadMask loads a mask image through the cache and thresholds it with
// ToMask.
func LoadMask(cache *ImageCache, path string, threshold uint8) (*raster.Raster, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	m, err := ToMask(img, threshold)
	if err != nil {
		return nil, fmt.Errorf("mask %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// LoadInstances loads every mask file as a named instance. All masks must
// share one size, which is returned alongside them. Instances are returned in
// file order and are not yet area-sorted.
func LoadInstances(cache *ImageCache, paths []string, threshold uint8) ([]raster.Instance, int, int, error) {
	if len(paths) == 0 {
		return nil, 0, 0, fmt.Errorf("%w: no mask files given", raster.ErrInvalidParameter)
	}

	instances := make([]raster.Instance, 0, len(paths))
	var w, h int
	for i, path := range paths {
		m, err := LoadMask(cache, path, threshold)
		if err != nil {
			return nil, 0, 0, err
		}
		if i == 0 {
			w, h = m.Width(), m.Height()
		} else if m.Width() != w || m.Height() != h {
			return nil, 0, 0, fmt.Errorf("%w: mask %d (%s) is %dx%d, first mask is %dx%d",
				raster.ErrInvalidRaster, i, filepath.Base(path), m.Width(), m.Height(), w, h)
		}
		in := raster.NewInstance(filepath.Base(path), m)
		in.Index = i
		instances = append(instances, in)
	}
	return instances, w, h, nil
}

// MaskInfo describes a mask file after thresholding.
type MaskInfo struct {
	// Width is the mask width in pixels.
	Width int `json:"width"`

	// Height is the mask height in pixels.
	Height int `json:"height"`

	// Format is derived from the file extension: "png", "jpeg", "gif" or
	// "unknown".
	Format string `json:"format"`

	// Threshold is the grey level used to binarize the image.
	Threshold uint8 `json:"threshold"`

	// ForegroundPixels is the number of pixels at or above Threshold.
	ForegroundPixels int `json:"foreground_pixels"`

	// ForegroundFraction is ForegroundPixels over the total pixel count.
	ForegroundFraction float64 `json:"foreground_fraction"`

	// Components is the number of 8-connected foreground regions.
	Components int `json:"components"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadMaskInfo loads a mask and reports its size and foreground statistics.
func LoadMaskInfo(cache *ImageCache, path string, threshold uint8) (*MaskInfo, error) {
	m, err := LoadMask(cache, path, threshold)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch filepath.Ext(path) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	fg := m.Count()
	return &MaskInfo{
		Width:              m.Width(),
		Height:             m.Height(),
		Format:             format,
		Threshold:          threshold,
		ForegroundPixels:   fg,
		ForegroundFraction: float64(fg) / float64(m.Len()),
		Components:         len(raster.Label8(m).Components),
		FileSizeBytes:      stat.Size(),
	}, nil
}
