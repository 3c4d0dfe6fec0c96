// Package raster provides the dense boolean grids the vectorization pipeline
// operates on, together with the morphological cleanup and connected-component
// helpers shared by the contour tracer and the instance classifier.
//
// # Memory Layout
//
// A Raster stores its pixels in a single flat slice addressed row-major:
// pixel (x, y) lives at index y*Width + x. There is no per-pixel allocation and
// no nested slice structure; use At, Set and Row to access pixels.
//
// # Coordinate System
//
// Coordinates are 0-based with the origin at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Ownership
//
// Every operation in this package that derives a raster (Clean, Union,
// EnclosedBackground) returns a new Raster. A raster handed in by a caller is
// never modified, so the same mask may be shared read-only between goroutines.
//
// # Errors
//
// ErrInvalidRaster and ErrInvalidParameter are the two fatal error classes of
// the pipeline. They are defined here, in the leaf package, so that every
// other package wraps the same sentinels and callers can test with errors.Is.
package raster
