package enhance

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Bilateral smooths img while keeping edges: each pixel becomes a weighted mean
// of its circular neighbourhood, weighted by spatial distance and by colour
// difference (sum of absolute channel differences). Borders are mirrored
// without repeating the edge pixel.
func Bilateral(img *image.NRGBA, p BilateralParams) *image.NRGBA {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return src
	}

	sigmaColor, sigmaSpace := p.SigmaColor, p.SigmaSpace
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := p.Diameter / 2
	if p.Diameter <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	radius = max(radius, 1)

	colorWeight := make([]float64, 3*256)
	for i := range colorWeight {
		colorWeight[i] = math.Exp(-0.5 * float64(i*i) / (sigmaColor * sigmaColor))
	}

	type tap struct {
		dx, dy int
		w      float64
	}
	var taps []tap
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx, dy, math.Exp(-0.5 * r * r / (sigmaSpace * sigmaSpace))})
		}
	}

	dst := imaging.Clone(src)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ci := src.PixOffset(x, y)
			c0, c1, c2 := int(src.Pix[ci]), int(src.Pix[ci+1]), int(src.Pix[ci+2])

			var sum [3]float64
			var wsum float64
			for _, t := range taps {
				ni := src.PixOffset(reflect101(x+t.dx, w), reflect101(y+t.dy, h))
				n0, n1, n2 := int(src.Pix[ni]), int(src.Pix[ni+1]), int(src.Pix[ni+2])

				wt := t.w * colorWeight[absInt(n0-c0)+absInt(n1-c1)+absInt(n2-c2)]
				sum[0] += wt * float64(n0)
				sum[1] += wt * float64(n1)
				sum[2] += wt * float64(n2)
				wsum += wt
			}

			dst.Pix[ci] = clamp8(sum[0] / wsum)
			dst.Pix[ci+1] = clamp8(sum[1] / wsum)
			dst.Pix[ci+2] = clamp8(sum[2] / wsum)
		}
	}
	return dst
}

// reflect101 mirrors an out-of-range index: -1 → 1, n → n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
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
