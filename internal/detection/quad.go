package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
)

// PointF is a 2-D point with float precision.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is a quadrilateral in canonical order: top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]PointF

// Points returns the corners rounded to pixel coordinates.
func (q Quad) Points() []image.Point {
	pts := make([]image.Point, len(q))
	for i, p := range q {
		pts[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	return pts
}

// Size returns the destination rectangle for rectifying q: the longer of the
// top and bottom edges by the longer of the left and right edges, rounded.
func (q Quad) Size() (width, height int) {
	top := dist(q[0], q[1])
	bottom := dist(q[3], q[2])
	left := dist(q[0], q[3])
	right := dist(q[1], q[2])
	return int(math.Round(math.Max(top, bottom))), int(math.Round(math.Max(left, right)))
}

func dist(a, b PointF) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// OrderQuad puts four points into canonical order regardless of input order.
//
// Top-left has the smallest x+y and bottom-right the largest. Top-right has the
// smallest y-x and bottom-left the largest.
func OrderQuad(pts [4]PointF) Quad {
	var q Quad
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)

	for _, p := range pts {
		sum, diff := p.X+p.Y, p.Y-p.X
		if sum < minSum {
			minSum, q[0] = sum, p
		}
		if sum > maxSum {
			maxSum, q[2] = sum, p
		}
		if diff < minDiff {
			minDiff, q[1] = diff, p
		}
		if diff > maxDiff {
			maxDiff, q[3] = diff, p
		}
	}
	return q
}

// QuadOptions bounds which contours may be accepted as the photo boundary.
type QuadOptions struct {
	// MinAreaRatio and MaxAreaRatio bound the contour area as a fraction of the image.
	MinAreaRatio float64 `json:"min_area_ratio" toml:"min_area_ratio"`
	MaxAreaRatio float64 `json:"max_area_ratio" toml:"max_area_ratio"`

	// EpsilonRatio scales the contour perimeter into the Douglas-Peucker tolerance.
	EpsilonRatio float64 `json:"epsilon_ratio" toml:"epsilon_ratio"`

	// MinAspect and MaxAspect bound the bounding-box width/height ratio (exclusive).
	MinAspect float64 `json:"min_aspect" toml:"min_aspect"`
	MaxAspect float64 `json:"max_aspect" toml:"max_aspect"`
}

// DefaultQuadOptions accepts contours covering 5-99% of the image whose 2%
// approximation has four vertices and an aspect ratio between 0.3 and 3.
var DefaultQuadOptions = QuadOptions{
	MinAreaRatio: 0.05,
	MaxAreaRatio: 0.99,
	EpsilonRatio: 0.02,
	MinAspect:    0.3,
	MaxAspect:    3.0,
}

// Detection is the outcome of a boundary search.
type Detection struct {
	Found bool `json:"found"`
	Quad  Quad `json:"quad"`

	// Reason explains a failed search.
	Reason string `json:"reason,omitempty"`

	// Contours is the number of external contours considered.
	Contours int `json:"contours"`

	// Area is the accepted contour's area in square pixels.
	Area float64 `json:"area,omitempty"`

	// Mask is the cleaned photo mask the search ran on.
	Mask *Mask `json:"-"`
}

// FindQuad scans contours largest first and returns the first one that passes
// opts as a canonically ordered quadrilateral.
func FindQuad(contours []Contour, width, height int, opts QuadOptions) Detection {
	d := Detection{Contours: len(contours)}
	if len(contours) == 0 {
		d.Reason = "no contours found"
		return d
	}

	sorted := append([]Contour(nil), contours...)
	SortByArea(sorted)

	total := float64(width * height)
	for _, c := range sorted {
		area := c.Area()
		if area < opts.MinAreaRatio*total || area > opts.MaxAreaRatio*total {
			continue
		}

		poly := ApproxPolygon(c, opts.EpsilonRatio*c.Perimeter())
		if len(poly) != 4 {
			continue
		}

		box := poly.BoundingBox()
		aspect := float64(box.Dx()) / float64(box.Dy())
		if aspect <= opts.MinAspect || aspect >= opts.MaxAspect {
			continue
		}

		var pts [4]PointF
		for i, p := range poly {
			pts[i] = PointF{X: float64(p.X), Y: float64(p.Y)}
		}
		d.Found = true
		d.Quad = OrderQuad(pts)
		d.Area = area
		return d
	}

	d.Reason = fmt.Sprintf("none of %d contours is a plausible quadrilateral", len(contours))
	return d
}

// DetectQuad runs the full boundary search on img with the given background range.
//
// When no background is left after cleanup the whole frame would be one contour;
// that is reported as a failure without tracing anything.
func DetectQuad(img *image.NRGBA, background imaging.HSVRange, opts QuadOptions) Detection {
	mask := Clean(PhotoMask(img, background))
	if mask.Count() == len(mask.Pix) {
		return Detection{Reason: "background range matches no pixels", Mask: mask}
	}

	b := img.Bounds()
	d := FindQuad(ExternalContours(mask), b.Dx(), b.Dy(), opts)
	d.Mask = mask
	return d
}
