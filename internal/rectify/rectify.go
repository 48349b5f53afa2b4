package rectify

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/photo-touchup-mcp/internal/detection"
	photo "github.com/ironsheep/photo-touchup-mcp/internal/imaging"
)

var errDegenerate = errors.New("degenerate rectangle")

// DefaultInwardOffset is the margin trimmed from each side after rectification.
const DefaultInwardOffset = 5

// Options configures a rectification.
type Options struct {
	// Background is the mat colour range.
	Background photo.HSVRange

	// InwardOffset is trimmed from every side of the rectified photo.
	InwardOffset int

	// Quad bounds which contours may be accepted.
	Quad detection.QuadOptions
}

// DefaultOptions returns the options for a pale-blue mat.
func DefaultOptions() Options {
	return Options{
		Background:   DefaultBackground,
		InwardOffset: DefaultInwardOffset,
		Quad:         detection.DefaultQuadOptions,
	}
}

// Result is the outcome of a rectification. Image is never nil or empty for a
// non-empty input.
type Result struct {
	Image *photo.Buffer `json:"-"`

	// Rectified is true when a quadrilateral was found and warped.
	Rectified bool `json:"rectified"`

	// Trimmed is true when the inward offset could be applied.
	Trimmed bool `json:"trimmed"`

	// Effective reports whether the output differs meaningfully from the input.
	Effective bool `json:"effective"`

	Quad   detection.Quad `json:"quad"`
	Width  int            `json:"width"`
	Height int            `json:"height"`

	// Reason explains why the input was returned unchanged, or why the trim was skipped.
	Reason string `json:"reason,omitempty"`
}

// Func is the shape shared by every rectifier implementation.
type Func func(buf *photo.Buffer, opts Options) *Result

// Rectify finds the photo on its mat, perspective-corrects it and trims the
// inward offset. It never fails: when a step cannot complete, the best earlier
// image is returned and Reason says why.
func Rectify(buf *photo.Buffer, opts Options) *Result {
	if buf.Empty() {
		return Unchanged(buf, "empty input")
	}

	d := detection.DetectQuad(buf.Image, opts.Background, opts.Quad)
	if !d.Found {
		return Unchanged(buf, d.Reason)
	}

	warped, err := WarpQuad(buf.Image, d.Quad)
	if err != nil {
		return Unchanged(buf, err.Error())
	}

	return Finish(buf, warped, d.Quad, opts.InwardOffset)
}

// WarpQuad maps the quadrilateral q in src onto an upright rectangle.
func WarpQuad(src *image.NRGBA, q detection.Quad) (*image.NRGBA, error) {
	w, h := q.Size()
	if w <= 0 || h <= 0 {
		return nil, errDegenerate
	}

	dst := [4]detection.PointF{
		{X: 0, Y: 0},
		{X: float64(w - 1), Y: 0},
		{X: float64(w - 1), Y: float64(h - 1)},
		{X: 0, Y: float64(h - 1)},
	}
	// Solving dst→src directly gives the sampling matrix without an inversion.
	inverse, err := PerspectiveTransform(dst, q)
	if err != nil {
		return nil, err
	}

	out := WarpPerspective(src, inverse, w, h)
	if out.Bounds().Empty() {
		return nil, errDegenerate
	}
	return out, nil
}

// Finish applies the inward offset to a warped image and assembles the Result.
// It is shared by every engine so fallbacks and effectiveness behave the same.
func Finish(orig *photo.Buffer, warped *image.NRGBA, q detection.Quad, offset int) *Result {
	if warped == nil || warped.Bounds().Empty() {
		return Unchanged(orig, "warped image is empty")
	}

	res := &Result{Rectified: true, Quad: q}

	b := warped.Bounds()
	x1, y1, x2, y2 := b.Min.X+offset, b.Min.Y+offset, b.Max.X-offset, b.Max.Y-offset
	switch {
	case offset <= 0:
	case x2 > x1 && y2 > y1:
		warped = imaging.Crop(warped, image.Rect(x1, y1, x2, y2))
		res.Trimmed = true
	default:
		res.Reason = "inward offset larger than the photo; kept untrimmed"
	}

	res.Image = orig.WithImage(warped)
	res.Width, res.Height = res.Image.Width(), res.Image.Height()
	res.Effective = photo.IsCropEffective(orig, res.Image)
	return res
}

// Unchanged returns a copy of buf as a failed result carrying reason.
func Unchanged(buf *photo.Buffer, reason string) *Result {
	out := buf.Clone()
	return &Result{
		Image:  out,
		Width:  out.Width(),
		Height: out.Height(),
		Reason: reason,
	}
}
