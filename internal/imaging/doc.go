// Package imaging connects image files to the mask pipeline.
//
// It covers the pixel plumbing around the vectorizer core:
//
//   - Loading: ImageCache decodes PNG, JPEG and GIF files once per path.
//     LoadMask and LoadInstances threshold grey mask images into rasters.
//   - Model-free masks: ColorDistanceMask estimates a backdrop colour from the
//     image border and marks every pixel that differs from it.
//   - Debug output: KeepDropOverlay, MaskOverlay, Cutout and MaskImage render
//     rasters back onto images; EncodePNGBase64 and SavePNG deliver them.
//   - Annotation: DrawOutlines draws traced polygon rings and their labels.
//
// # Coordinate System
//
// Raster coordinates are 0-based with the origin at the image's top-left
// corner, X increasing rightward and Y increasing downward. Images whose
// bounds do not start at (0,0) are shifted so that their Min maps to (0,0).
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless and
// never modify the images or rasters passed to them.
package imaging
