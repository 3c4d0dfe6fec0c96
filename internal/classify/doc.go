// Package classify decides which mask instances are background and which are
// objects worth vectorizing.
//
// Segmentation models that produce "everything" masks also emit masks for the
// floor, the table top or the picture frame. Those masks share a few
// geometric traits that this package measures for every instance:
//
//   - Area fraction: share of the raster covered by the mask.
//   - Border-touch fraction: share of the mask's pixels that lie inside a
//     band of BorderBandPx pixels along any raster edge.
//   - Hole fraction: enclosed background (pixels not 4-connected to the
//     outside of the raster) relative to the mask's own area. Enclosed regions
//     are grouped into 8-connected holes and holes smaller than MinHoleAreaPx
//     are ignored.
//
// # Rules
//
// Classify applies ordered rules and reports the first one that fires:
//
//  1. area < MinAreaPx                                   -> "too_small"
//  2. area fraction >= BgAreaFractionThreshold           -> "too_large"
//  3. border-touch fraction >= BorderTouchFractionThreshold -> "border_touch"
//  4. hole heuristic on and hole fraction >= threshold   -> "hole_frac"
//  5. otherwise                                          -> "kept"
//
// Every mask, including an empty one, classifies deterministically; an empty
// mask stops at rule 1.
//
// # Policies
//
// A BackgroundPolicy turns a whole instance set into decisions. The
// HeuristicPolicy applies the rules above to every instance independently.
// The LargestIsBackgroundPolicy treats the single largest instance as the
// background and keeps everything else.
package classify
