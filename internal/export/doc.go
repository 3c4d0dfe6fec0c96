// Package export turns masks into the polygon payload consumed by the physics
// side (objects_contour.json).
//
// Every mask goes through the same steps: morphological cleanup, outer
// contour tracing, an area filter and Douglas-Peucker simplification.
// Contours that are too small or collapse below 3 points are logged at debug
// level and skipped.
//
// Two export modes exist:
//
//   - Union: one merged mask, every surviving contour becomes a polygon.
//   - PerInstance: each instance mask separately, keeping only its largest
//     contour, tagged with the instance's mask index.
//
// Payload polygons are sorted by area, largest first, and serialise with
// pixel coordinates (origin top-left, y down):
//
//	{
//	  "image_w": 640,
//	  "image_h": 480,
//	  "polygons": [
//	    {"label": "object", "outer": [[30,30],[50,30],[50,50],[30,50]],
//	     "holes": [], "area_px": 400, "mask_index": 1}
//	  ],
//	  "notes": "..."
//	}
package export
