//go:build gocv

package opencv

import (
	"fmt"
	"image"
	"runtime"
	"sort"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/ironsheep/photo-touchup-mcp/internal/detection"
	"github.com/ironsheep/photo-touchup-mcp/internal/enhance"
	photo "github.com/ironsheep/photo-touchup-mcp/internal/imaging"
	"github.com/ironsheep/photo-touchup-mcp/internal/rectify"
)

// Engine runs the rectifier and the enhancement filters through OpenCV.
type Engine struct{}

// Available reports whether the OpenCV engine was compiled in.
func Available() bool { return true }

// New returns the OpenCV engine.
func New() (*Engine, error) {
	return &Engine{}, nil
}

func (e *Engine) Name() string { return Name }

// toMat converts an opaque NRGBA image to a BGR Mat. The caller closes it.
func toMat(img *image.NRGBA) (gocv.Mat, error) {
	src := imaging.Clone(img)
	b := src.Bounds()

	rgba, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, src.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap pixels: %w", err)
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)
	// rgba borrows src.Pix until the conversion is done.
	runtime.KeepAlive(src)
	return bgr, nil
}

// fromMat converts a BGR Mat back to an opaque NRGBA image.
func fromMat(bgr gocv.Mat) *image.NRGBA {
	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(bgr, &rgba, gocv.ColorBGRToRGBA)

	out := image.NewNRGBA(image.Rect(0, 0, rgba.Cols(), rgba.Rows()))
	copy(out.Pix, rgba.ToBytes())
	return out
}

// filter runs fn on img as a BGR Mat. Conversion failures return a copy of img.
func filter(img *image.NRGBA, fn func(src gocv.Mat, dst *gocv.Mat)) *image.NRGBA {
	if img.Bounds().Empty() {
		return imaging.Clone(img)
	}
	src, err := toMat(img)
	if err != nil {
		return imaging.Clone(img)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	fn(src, &dst)
	if dst.Empty() {
		return imaging.Clone(img)
	}
	return fromMat(dst)
}

func (e *Engine) Bilateral(img *image.NRGBA, p enhance.BilateralParams) *image.NRGBA {
	return filter(img, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.BilateralFilter(src, dst, p.Diameter, p.SigmaColor, p.SigmaSpace)
	})
}

// CLAHE equalizes the L channel in OpenCV's 8-bit Lab space.
func (e *Engine) CLAHE(img *image.NRGBA, p enhance.CLAHEParams) *image.NRGBA {
	grid := max(p.TileGrid, 1)
	return filter(img, func(src gocv.Mat, dst *gocv.Mat) {
		lab := gocv.NewMat()
		defer lab.Close()
		gocv.CvtColor(src, &lab, gocv.ColorBGRToLab)

		channels := gocv.Split(lab)
		defer func() {
			for _, c := range channels {
				c.Close()
			}
		}()

		clahe := gocv.NewCLAHEWithParams(p.ClipLimit, image.Pt(grid, grid))
		defer clahe.Close()

		equalized := gocv.NewMat()
		clahe.Apply(channels[0], &equalized)
		channels[0].Close()
		channels[0] = equalized

		gocv.Merge(channels, &lab)
		gocv.CvtColor(lab, dst, gocv.ColorLabToBGR)
	})
}

// Sharpen is an unsharp mask: (1+s)·src − s·GaussianBlur(src, σ).
func (e *Engine) Sharpen(img *image.NRGBA, p enhance.SharpenParams) *image.NRGBA {
	if p.Sigma <= 0 || p.Strength == 0 {
		return imaging.Clone(img)
	}
	return filter(img, func(src gocv.Mat, dst *gocv.Mat) {
		blurred := gocv.NewMat()
		defer blurred.Close()
		gocv.GaussianBlur(src, &blurred, image.Point{}, p.Sigma, p.Sigma, gocv.BorderDefault)
		gocv.AddWeighted(src, 1+p.Strength, blurred, -p.Strength, 0, dst)
	})
}

// Rectify is the OpenCV rendition of rectify.Rectify.
func (e *Engine) Rectify(buf *photo.Buffer, opts rectify.Options) *rectify.Result {
	if buf.Empty() {
		return rectify.Unchanged(buf, "empty input")
	}
	w, h := buf.Width(), buf.Height()

	src, err := toMat(buf.Image)
	if err != nil {
		return rectify.Unchanged(buf, err.Error())
	}
	defer src.Close()

	mask := photoMask(src, opts.Background)
	defer mask.Close()
	if gocv.CountNonZero(mask) == w*h {
		return rectify.Unchanged(buf, "background range matches no pixels")
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return rectify.Unchanged(buf, "no contours found")
	}

	q, ok := pickQuad(contours, w, h, opts.Quad)
	if !ok {
		return rectify.Unchanged(buf, fmt.Sprintf("none of %d contours is a plausible quadrilateral", contours.Size()))
	}

	ww, hh := q.Size()
	if ww <= 0 || hh <= 0 {
		return rectify.Unchanged(buf, "degenerate rectangle")
	}

	srcPts := gocv.NewPoint2fVectorFromPoints(point2f(q[:]))
	defer srcPts.Close()
	dstPts := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: 0},
		{X: float32(ww - 1), Y: 0},
		{X: float32(ww - 1), Y: float32(hh - 1)},
		{X: 0, Y: float32(hh - 1)},
	})
	defer dstPts.Close()

	m := gocv.GetPerspectiveTransform2f(srcPts, dstPts)
	defer m.Close()

	warped := gocv.NewMat()
	defer warped.Close()
	gocv.WarpPerspective(src, &warped, m, image.Pt(ww, hh))
	if warped.Empty() {
		return rectify.Unchanged(buf, "warped image is empty")
	}

	return rectify.Finish(buf, fromMat(warped), q, opts.InwardOffset)
}

// photoMask thresholds the background range, inverts it and cleans it with the
// same opening and closing as the native detector.
func photoMask(bgr gocv.Mat, bg photo.HSVRange) gocv.Mat {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	background := gocv.NewMat()
	defer background.Close()
	lo, hi := bg.Lower, bg.Upper
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(float64(lo[0]), float64(lo[1]), float64(lo[2]), 0),
		gocv.NewScalar(float64(hi[0]), float64(hi[1]), float64(hi[2]), 0),
		&background)

	mask := gocv.NewMat()
	gocv.BitwiseNot(background, &mask)

	open := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(detection.OpenKernel, detection.OpenKernel))
	defer open.Close()
	closeK := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(detection.CloseKernel, detection.CloseKernel))
	defer closeK.Close()

	for i := 0; i < detection.OpenIterations; i++ {
		gocv.Erode(mask, &mask, open)
	}
	for i := 0; i < detection.OpenIterations; i++ {
		gocv.Dilate(mask, &mask, open)
	}
	for i := 0; i < detection.CloseIterations; i++ {
		gocv.Dilate(mask, &mask, closeK)
	}
	for i := 0; i < detection.CloseIterations; i++ {
		gocv.Erode(mask, &mask, closeK)
	}
	return mask
}

// pickQuad applies the detection.FindQuad acceptance rules to OpenCV contours.
func pickQuad(contours gocv.PointsVector, w, h int, opts detection.QuadOptions) (detection.Quad, bool) {
	type candidate struct {
		idx  int
		area float64
	}
	cands := make([]candidate, contours.Size())
	for i := range cands {
		cands[i] = candidate{i, gocv.ContourArea(contours.At(i))}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].area > cands[j].area })

	total := float64(w * h)
	for _, c := range cands {
		if c.area < opts.MinAreaRatio*total || c.area > opts.MaxAreaRatio*total {
			continue
		}

		contour := contours.At(c.idx)
		approx := gocv.ApproxPolyDP(contour, opts.EpsilonRatio*gocv.ArcLength(contour, true), true)
		pts := approx.ToPoints()
		approx.Close()
		if len(pts) != 4 {
			continue
		}

		box := gocv.BoundingRect(contour)
		aspect := float64(box.Dx()) / float64(box.Dy())
		if aspect <= opts.MinAspect || aspect >= opts.MaxAspect {
			continue
		}

		var corners [4]detection.PointF
		for i, p := range pts {
			corners[i] = detection.PointF{X: float64(p.X), Y: float64(p.Y)}
		}
		return detection.OrderQuad(corners), true
	}
	return detection.Quad{}, false
}

func point2f(pts []detection.PointF) []gocv.Point2f {
	out := make([]gocv.Point2f, len(pts))
	for i, p := range pts {
		out[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return out
}
