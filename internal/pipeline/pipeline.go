// Package pipeline wires the classifier and the exporter into the end-to-end
// mask vectorization run.
//
// A multi-mask run sorts the instances by area, lets the configured
// background policy decide on every instance, and exports only the kept ones,
// either as one polygon per instance or as the union of all kept masks.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ironsheep/mask-contour-mcp/internal/classify"
	"github.com/ironsheep/mask-contour-mcp/internal/config"
	"github.com/ironsheep/mask-contour-mcp/internal/export"
	"github.com/ironsheep/mask-contour-mcp/internal/imaging"
	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// Payload notes.
const (
	NotesHeuristic  = "Per-instance masks. Background excluded via area + border-touch + hole heuristics."
	NotesLargest    = "Per-instance masks. Largest mask treated as background."
	NotesUnion      = "Union of kept masks."
	NotesSingle     = "Single mask from colour distance to the estimated background."
	NotesMerged     = "Union of all masks, no background classification."
	NotesAllDropped = "All masks dropped as background/noise by heuristics."
)

// Result is the outcome of a multi-mask run.
type Result struct {
	Payload *export.Payload

	// Decisions holds one decision per instance, in area-sorted order.
	Decisions []classify.Decision

	Kept    []raster.Instance
	Dropped []raster.Instance

	// KeepUnion and DropUnion merge the kept and dropped masks; they feed the
	// debug overlays.
	KeepUnion *raster.Raster
	DropUnion *raster.Raster
}

// Run classifies and vectorizes masks for a w x h image.
//
// Instances are sorted by descending area first, so Decision.Index and
// Polygon.MaskIndex refer to the sorted order. When every instance is
// dropped, the payload has no polygons and a note saying so; that is not an
// error.
func Run(masks []raster.Instance, w, h int, cfg config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := raster.ValidateDims(w, h); err != nil {
		return nil, err
	}
	for i, in := range masks {
		if in.Mask == nil {
			return nil, fmt.Errorf("%w: mask %d (%s) is nil", raster.ErrInvalidRaster, i, in.Name)
		}
		if in.Mask.Width() != w || in.Mask.Height() != h {
			return nil, fmt.Errorf("%w: mask %d (%s) is %dx%d, image is %dx%d",
				raster.ErrInvalidRaster, i, in.Name, in.Mask.Width(), in.Mask.Height(), w, h)
		}
	}

	instances := raster.SortInstances(masks)

	policy, err := classify.PolicyByName(cfg.Policy, cfg.Classifier, cfg.Workers)
	if err != nil {
		return nil, err
	}
	decisions, err := policy.Decide(instances)
	if err != nil {
		return nil, fmt.Errorf("failed to classify masks: %w", err)
	}
	for _, d := range decisions {
		logger.Debug("mask classified",
			"mask_index", d.Index,
			"name", d.Name,
			"area", d.Stats.Area,
			"area_fraction", d.Stats.AreaFraction,
			"border_touch_fraction", d.Stats.BorderTouchFraction,
			"hole_fraction", d.Stats.HoleFraction,
			"verdict", verdict(d),
			"reason", d.Reason,
		)
	}

	kept, dropped, err := classify.Partition(instances, decisions)
	if err != nil {
		return nil, err
	}

	res := &Result{Decisions: decisions, Kept: kept, Dropped: dropped}
	if res.KeepUnion, err = union(w, h, kept); err != nil {
		return nil, err
	}
	if res.DropUnion, err = union(w, h, dropped); err != nil {
		return nil, err
	}

	logger.Info("masks classified",
		"policy", policy.Name(),
		"total", len(instances),
		"kept", len(kept),
		"dropped", len(dropped),
	)

	if len(kept) == 0 {
		logger.Warn("all masks dropped",
			"total", len(instances),
			"reasons", reasonCounts(decisions),
			"hint", "raise bg_area_fraction_threshold or border_touch_fraction_threshold, lower min_area_px, or disable the hole heuristic",
		)
		res.Payload = export.NewPayload(w, h, nil, NotesAllDropped)
		return res, nil
	}

	opts := exportOptions(cfg, notesFor(cfg), logger)
	switch cfg.Mode {
	case config.ModeUnion:
		res.Payload, err = export.Union(res.KeepUnion, w, h, opts)
	default:
		res.Payload, err = export.PerInstance(kept, w, h, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export polygons: %w", err)
	}

	logger.Info("polygons exported", "mode", cfg.Mode, "polygons", len(res.Payload.Polygons))
	return res, nil
}

// RunSingle vectorizes one mask in union mode without classification.
func RunSingle(mask *raster.Raster, cfg config.Config, logger *slog.Logger) (*export.Payload, error) {
	if mask == nil {
		return nil, fmt.Errorf("%w: mask is nil", raster.ErrInvalidRaster)
	}
	return runUnion(mask, mask.Width(), mask.Height(), cfg, NotesSingle, logger)
}

// RunMerged ORs all masks together and vectorizes the result in union mode,
// without classification.
func RunMerged(masks []raster.Instance, w, h int, cfg config.Config, logger *slog.Logger) (*export.Payload, error) {
	rasters := make([]*raster.Raster, len(masks))
	for i, in := range masks {
		if in.Mask == nil {
			return nil, fmt.Errorf("%w: mask %d (%s) is nil", raster.ErrInvalidRaster, i, in.Name)
		}
		rasters[i] = in.Mask
	}
	if err := raster.ValidateDims(w, h); err != nil {
		return nil, err
	}
	merged, err := raster.Union(w, h, rasters...)
	if err != nil {
		return nil, err
	}
	return runUnion(merged, w, h, cfg, NotesMerged, logger)
}

func runUnion(mask *raster.Raster, w, h int, cfg config.Config, notes string, logger *slog.Logger) (*export.Payload, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := export.Union(mask, w, h, exportOptions(cfg, notes, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to export polygons: %w", err)
	}
	logger.Info("polygons exported", "mode", config.ModeUnion, "polygons", len(p.Polygons))
	return p, nil
}

// Outlines converts exported polygons for imaging.DrawOutlines. Per-instance
// polygons are labelled with their mask index, union polygons with their area.
func Outlines(p *export.Payload) []imaging.Outline {
	out := make([]imaging.Outline, len(p.Polygons))
	for i, poly := range p.Polygons {
		label := fmt.Sprintf("%.0fpx", poly.AreaPx)
		if poly.MaskIndex != nil {
			label = fmt.Sprintf("#%d", *poly.MaskIndex)
		}
		out[i] = imaging.Outline{Outer: poly.Outer, Holes: poly.Holes, Label: label}
	}
	return out
}

func exportOptions(cfg config.Config, notes string, logger *slog.Logger) export.Options {
	return export.Options{
		Cleaner:          cfg.Cleaner,
		Simplifier:       cfg.Simplifier,
		MinContourAreaPx: cfg.MinContourAreaPx,
		Notes:            notes,
		Workers:          cfg.Workers,
		Logger:           logger,
	}
}

func notesFor(cfg config.Config) string {
	var notes string
	if cfg.Policy == classify.PolicyLargest {
		notes = NotesLargest
	} else {
		notes = NotesHeuristic
	}
	if cfg.Mode == config.ModeUnion {
		notes += " " + NotesUnion
	}
	return notes
}

func union(w, h int, instances []raster.Instance) (*raster.Raster, error) {
	masks := make([]*raster.Raster, len(instances))
	for i, in := range instances {
		masks[i] = in.Mask
	}
	return raster.Union(w, h, masks...)
}

func verdict(d classify.Decision) string {
	if d.IsBackground {
		return "DROP"
	}
	return "KEEP"
}

// reasonCounts summarises why masks were dropped, e.g. "too_small=3 too_large=1".
func reasonCounts(decisions []classify.Decision) string {
	order := []string{
		classify.ReasonTooSmall,
		classify.ReasonTooLarge,
		classify.ReasonBorderTouch,
		classify.ReasonHoleFrac,
		classify.ReasonLargest,
	}
	counts := map[string]int{}
	for _, d := range decisions {
		counts[d.Reason]++
	}
	var parts []string
	for _, r := range order {
		if counts[r] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", r, counts[r]))
		}
	}
	return strings.Join(parts, " ")
}
