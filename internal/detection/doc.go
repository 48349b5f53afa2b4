// Package detection finds the boundary of a photograph lying on a plain,
// known-colour background.
//
// The pipeline is deliberately classical:
//
//  1. Background mask: every pixel whose HSV colour falls inside the configured
//     background range is background; the inverted mask marks candidate photo pixels.
//  2. Cleanup: a morphological opening removes specks, then a closing fills gaps.
//     Opening runs first so isolated noise is gone before closing could bridge it
//     into the photo outline.
//  3. External contours: the outer border of every foreground component that is not
//     nested inside a hole of another component, traced with 8-connectivity.
//  4. Quadrilateral selection: contours are taken largest first; the first whose
//     area, polygon approximation (Douglas-Peucker) and bounding-box aspect ratio
//     pass the limits in QuadOptions wins.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Contour points are pixel centres. A filled w×h rectangle therefore traces a
// contour whose shoelace area is (w-1)×(h-1).
//
// # Failure
//
// Nothing here returns an error for geometric failure. Detection reports Found=false
// together with a short Reason, and callers keep their previous image.
package detection
