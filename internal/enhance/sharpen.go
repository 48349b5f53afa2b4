package enhance

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

// Sharpen applies an unsharp mask: out = orig + Strength·(orig − blurred).
// Sigma is the standard deviation of the Gaussian blur. A non-positive Sigma or
// a zero Strength returns an unchanged copy.
func Sharpen(img *image.NRGBA, p SharpenParams) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if w == 0 || h == 0 || p.Sigma <= 0 || p.Strength == 0 {
		return out
	}

	blurred := gaussianBlur(out, p.Sigma)
	bb := blurred.Bounds()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := out.PixOffset(x, y)
			j := blurred.PixOffset(bb.Min.X+x, bb.Min.Y+y)
			for c := 0; c < 3; c++ {
				o := float64(out.Pix[i+c])
				b := float64(blurred.Pix[j+c])
				out.Pix[i+c] = clamp8((1+p.Strength)*o - p.Strength*b)
			}
		}
	}
	return out
}

// gaussianBlur runs a separable Gaussian of standard deviation sigma, with the
// kernel cut at ±ceil(3σ) like OpenCV's GaussianBlur for 8-bit images.
func gaussianBlur(img image.Image, sigma float64) *image.RGBA {
	k := gaussianKernel(sigma)
	opts := &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true}
	horizontal := convolution.Convolve(img, k, opts)
	return convolution.Convolve(horizontal, k.Transposed(), opts)
}

// gaussianKernel returns a normalized 1-D kernel of length 2·ceil(3σ)+1.
func gaussianKernel(sigma float64) convolution.Matrix {
	radius := int(math.Ceil(3 * sigma))
	k := convolution.NewKernel(2*radius+1, 1)
	for i := range k.Matrix {
		x := float64(i - radius)
		k.Matrix[i] = math.Exp(-x * x / (2 * sigma * sigma))
	}
	return k.Normalized()
}
