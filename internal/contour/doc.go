// Package contour turns cleaned rasters into polygons.
//
// Trace follows the outer boundary of every 8-connected foreground component
// and Simplify reduces the resulting rings to a bounded number of vertices.
//
// # Boundary Coordinates
//
// Boundaries run along pixel edges, so polygon vertices sit on the pixel-corner
// lattice: a pixel (x, y) covers the unit square from (x, y) to (x+1, y+1).
// A solid 20x20 block whose top-left pixel is (30, 30) traces to the four
// vertices (30,30), (50,30), (50,50), (30,50) with an area of exactly 400.
// The origin is the top-left corner, X grows rightward and Y grows downward.
//
// # Determinism
//
// Components are visited in row-major order of their topmost-leftmost pixel,
// and every boundary starts at that pixel's top-left corner walking east
// (clockwise on screen). Identical input always yields identical output.
package contour
