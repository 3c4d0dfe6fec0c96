package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/mask-contour-mcp/internal/config"
	"github.com/ironsheep/mask-contour-mcp/internal/export"
	"github.com/ironsheep/mask-contour-mcp/internal/imaging"
	"github.com/ironsheep/mask-contour-mcp/internal/pipeline"
	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// Output file names written by vectorize.
const (
	contourOut  = "objects_contour.json"
	maskOut     = "objects_mask.png"
	cutoutOut   = "objects_only_rgba.png"
	overlayOut  = "overlay.png"
	keepDropOut = "debug_keep_drop.png"
	contoursOut = "debug_contours.png"
)

// runVectorize is the batch entry point. With -masks the per-instance
// pipeline runs; with only -image a colour-distance mask is vectorized.
func runVectorize(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("vectorize", flag.ContinueOnError)
	fs.SetOutput(stdout)
	masksFlag := fs.String("masks", "", "comma-separated per-instance mask images")
	imageFlag := fs.String("image", "", "source image for the colour mask and debug overlays")
	outDir := fs.String("out", "", "output directory (required)")
	configPath := fs.String("config", "", "JSON tuning file")
	mode := fs.String("mode", "", "export mode: per_instance or union")
	policy := fs.String("policy", "", "background policy: heuristic or largest")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *outDir == "" {
		return errors.New("-out is required")
	}
	if *masksFlag == "" && *imageFlag == "" {
		return errors.New("need -masks, -image or both")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *policy != "" {
		cfg.Policy = *policy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cache := imaging.NewImageCache()
	var img image.Image
	if *imageFlag != "" {
		var err error
		if img, err = cache.Load(*imageFlag); err != nil {
			return err
		}
	}

	var (
		payload    *export.Payload
		keep, drop *raster.Raster
	)
	if *masksFlag != "" {
		masks, w, h, err := imaging.LoadInstances(cache, splitPaths(*masksFlag), cfg.MaskThreshold)
		if err != nil {
			return err
		}
		if img != nil {
			if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
				return fmt.Errorf("%w: masks are %dx%d, image is %dx%d", raster.ErrInvalidRaster, w, h, b.Dx(), b.Dy())
			}
		}
		res, err := pipeline.Run(masks, w, h, cfg, logger)
		if err != nil {
			return err
		}
		payload, keep, drop = res.Payload, res.KeepUnion, res.DropUnion
	} else {
		cm, err := imaging.ColorDistanceMask(img, cfg.ColorMask)
		if err != nil {
			return err
		}
		logger.Info("color mask built", "background", cm.BackgroundColor, "foreground_fraction", cm.ForegroundFraction)
		if payload, err = pipeline.RunSingle(cm.Mask, cfg, logger); err != nil {
			return err
		}
		keep = cm.Mask
	}

	saved := []string{filepath.Join(*outDir, contourOut)}
	if err := export.WriteJSON(saved[0], payload); err != nil {
		return err
	}
	maskPath := filepath.Join(*outDir, maskOut)
	if err := imaging.SavePNG(imaging.MaskImage(keep), maskPath); err != nil {
		return err
	}
	saved = append(saved, maskPath)

	if img != nil {
		paths, err := writeDebugImages(*outDir, img, keep, drop, payload)
		if err != nil {
			return err
		}
		saved = append(saved, paths...)
	}

	for _, p := range saved {
		fmt.Fprintf(stdout, "Saved: %s\n", p)
	}
	fmt.Fprintf(stdout, "%d polygon(s). %s\n", len(payload.Polygons), payload.Notes)
	return nil
}

func writeDebugImages(dir string, img image.Image, keep, drop *raster.Raster, payload *export.Payload) ([]string, error) {
	cutout, err := imaging.Cutout(img, keep)
	if err != nil {
		return nil, err
	}
	overlay, err := imaging.MaskOverlay(img, keep, imaging.DefaultOverlayAlpha)
	if err != nil {
		return nil, err
	}
	keepDrop, err := imaging.KeepDropOverlay(img, keep, drop, imaging.DefaultOverlayAlpha)
	if err != nil {
		return nil, err
	}
	contours, err := imaging.DrawOutlines(img, pipeline.Outlines(payload), imaging.DefaultOutlineColor)
	if err != nil {
		return nil, err
	}

	outputs := []struct {
		name string
		img  image.Image
	}{
		{cutoutOut, cutout},
		{overlayOut, overlay},
		{keepDropOut, keepDrop},
		{contoursOut, contours},
	}
	var paths []string
	for _, o := range outputs {
		p := filepath.Join(dir, o.name)
		if err := imaging.SavePNG(o.img, p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func splitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
