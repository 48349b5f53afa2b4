package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Percentages holds per-edge crop amounts as percentages of the image dimension.
type Percentages struct {
	Top    float64 `json:"top" toml:"top"`
	Right  float64 `json:"right" toml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom"`
	Left   float64 `json:"left" toml:"left"`
}

// Box is a crop rectangle in source pixel coordinates.
// (X1,Y1) is inclusive, (X2,Y2) is exclusive.
type Box struct {
	X1 int `json:"x1" toml:"x1"`
	Y1 int `json:"y1" toml:"y1"`
	X2 int `json:"x2" toml:"x2"`
	Y2 int `json:"y2" toml:"y2"`
}

// CropPercent trims each edge by the given percentage of the matching dimension.
//
// Computed edges are clamped to the image. If the clamped region is degenerate
// (right <= left or bottom <= top) an unmodified copy of the input is returned,
// never an empty image.
func CropPercent(buf *Buffer, p Percentages) *Buffer {
	if buf.Empty() {
		return buf.Clone()
	}
	w, h := buf.Width(), buf.Height()

	left := int(float64(w) * p.Left / 100)
	right := w - int(float64(w)*p.Right/100)
	top := int(float64(h) * p.Top / 100)
	bottom := h - int(float64(h)*p.Bottom/100)

	return cropClamped(buf, left, top, right, bottom)
}

// CropBox crops to an explicit rectangle in source pixel coordinates.
//
// The box is clamped to the image bounds; an inverted or empty box yields an
// unmodified copy.
func CropBox(buf *Buffer, box Box) *Buffer {
	if buf.Empty() {
		return buf.Clone()
	}
	return cropClamped(buf, box.X1, box.Y1, box.X2, box.Y2)
}

// cropClamped clamps raw edges to the image and crops to them. Edges are kept
// raw (not an image.Rectangle) so inverted input is detected instead of swapped.
func cropClamped(buf *Buffer, x1, y1, x2, y2 int) *Buffer {
	bounds := buf.Image.Bounds()

	x1, x2 = clamp(x1, 0, bounds.Dx()), clamp(x2, 0, bounds.Dx())
	y1, y2 = clamp(y1, 0, bounds.Dy()), clamp(y2, 0, bounds.Dy())
	if x2 <= x1 || y2 <= y1 {
		return buf.Clone()
	}
	if x1 == 0 && y1 == 0 && x2 == bounds.Dx() && y2 == bounds.Dy() {
		return buf.Clone()
	}

	cropped := imaging.Crop(buf.Image, image.Rect(x1, y1, x2, y2))
	return buf.WithImage(cropped)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
