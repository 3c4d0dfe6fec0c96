package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// DefaultOverlayAlpha is the tint strength used for debug overlays.
const DefaultOverlayAlpha = 0.55

var (
	keepTint = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	dropTint = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

// ImageResult is an encoded image ready to be returned to an MCP client.
type ImageResult struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// ImageBase64 is the base64-encoded PNG data.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// KeepDropOverlay tints kept pixels green and dropped pixels red on a copy of
// img. Where both masks are set, red wins. Either mask may be nil.
func KeepDropOverlay(img image.Image, keep, drop *raster.Raster, alpha float64) (*image.NRGBA, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: overlay alpha %v must be within [0,1]", raster.ErrInvalidParameter, alpha)
	}
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	for _, m := range []*raster.Raster{keep, drop} {
		if m != nil && (m.Width() != w || m.Height() != h) {
			return nil, fmt.Errorf("%w: mask is %dx%d, image is %dx%d", raster.ErrInvalidRaster, m.Width(), m.Height(), w, h)
		}
	}

	tint(out, keep, keepTint, alpha)
	tint(out, drop, dropTint, alpha)
	return out, nil
}

// MaskOverlay tints the foreground of mask green on a copy of img.
func MaskOverlay(img image.Image, mask *raster.Raster, alpha float64) (*image.NRGBA, error) {
	return KeepDropOverlay(img, mask, nil, alpha)
}

// Cutout returns img with the mask as its alpha channel: background pixels
// become fully transparent, foreground pixels fully opaque.
func Cutout(img image.Image, mask *raster.Raster) (*image.NRGBA, error) {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if mask.Width() != w || mask.Height() != h {
		return nil, fmt.Errorf("%w: mask is %dx%d, image is %dx%d", raster.ErrInvalidRaster, mask.Width(), mask.Height(), w, h)
	}

	for y := 0; y < h; y++ {
		row := mask.Row(y)
		for x, fg := range row {
			i := y*out.Stride + x*4 + 3
			if fg {
				out.Pix[i] = 0xFF
			} else {
				out.Pix[i] = 0
			}
		}
	}
	return out, nil
}

// MaskImage renders a raster as a grey image: 255 for foreground, 0 otherwise.
func MaskImage(mask *raster.Raster) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, mask.Width(), mask.Height()))
	for y := 0; y < mask.Height(); y++ {
		for x, fg := range mask.Row(y) {
			if fg {
				g.Pix[y*g.Stride+x] = 0xFF
			}
		}
	}
	return g
}

// EncodePNGBase64 encodes img as a base64 PNG.
func EncodePNGBase64(img image.Image) (*ImageResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &ImageResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SavePNG writes img to path; the format follows the file extension.
func SavePNG(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func tint(img *image.NRGBA, m *raster.Raster, c color.NRGBA, alpha float64) {
	if m == nil {
		return
	}
	blend := func(dst, src uint8) uint8 {
		return uint8(float64(dst)*(1-alpha) + float64(src)*alpha + 0.5)
	}
	for y := 0; y < m.Height(); y++ {
		for x, fg := range m.Row(y) {
			if !fg {
				continue
			}
			i := y*img.Stride + x*4
			img.Pix[i] = blend(img.Pix[i], c.R)
			img.Pix[i+1] = blend(img.Pix[i+1], c.G)
			img.Pix[i+2] = blend(img.Pix[i+2], c.B)
		}
	}
}
