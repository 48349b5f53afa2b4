package rectify

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/photo-touchup-mcp/internal/detection"
)

var errSingular = errors.New("perspective system is singular")

// Matrix is a row-major 3×3 homography.
type Matrix [9]float64

// Apply maps (x, y) through the homography.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	w := m[6]*x + m[7]*y + m[8]
	if w == 0 {
		return math.Inf(1), math.Inf(1)
	}
	return (m[0]*x + m[1]*y + m[2]) / w, (m[3]*x + m[4]*y + m[5]) / w
}

// PerspectiveTransform returns the homography that maps each src point onto
// the dst point with the same index.
func PerspectiveTransform(src, dst [4]detection.PointF) (Matrix, error) {
	// Eight unknowns h0..h7 with h8 fixed at 1; two equations per point pair.
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return Matrix{}, errSingular
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			f := a[r][col] / a[col][col]
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	var m Matrix
	for i := 0; i < 8; i++ {
		m[i] = a[i][8] / a[i][i]
	}
	m[8] = 1
	return m, nil
}

// WarpPerspective renders a width×height image whose pixel (x, y) is sampled
// bilinearly from src at inverse.Apply(x, y). Samples outside src are black.
func WarpPerspective(src *image.NRGBA, inverse Matrix, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := inverse.Apply(float64(x), float64(y))
			dst.SetNRGBA(x, y, bilinear(src, sx, sy))
		}
	}
	return dst
}

func bilinear(src *image.NRGBA, x, y float64) color.NRGBA {
	if math.IsInf(x, 0) || math.IsNaN(x) || math.IsInf(y, 0) || math.IsNaN(y) {
		return color.NRGBA{A: 0xff}
	}
	b := src.Bounds()
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	fx, fy := x-float64(x0), y-float64(y0)

	var acc [3]float64
	for _, s := range [4]struct {
		dx, dy int
		w      float64
	}{
		{0, 0, (1 - fx) * (1 - fy)},
		{1, 0, fx * (1 - fy)},
		{0, 1, (1 - fx) * fy},
		{1, 1, fx * fy},
	} {
		px, py := b.Min.X+x0+s.dx, b.Min.Y+y0+s.dy
		if s.w == 0 || !(image.Point{px, py}).In(b) {
			continue
		}
		i := src.PixOffset(px, py)
		acc[0] += s.w * float64(src.Pix[i])
		acc[1] += s.w * float64(src.Pix[i+1])
		acc[2] += s.w * float64(src.Pix[i+2])
	}

	return color.NRGBA{R: clamp8(acc[0]), G: clamp8(acc[1]), B: clamp8(acc[2]), A: 0xff}
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
