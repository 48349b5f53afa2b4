package enhance

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

const histBins = 256

// CLAHE equalizes the lightness of img tile by tile with a clipped histogram,
// leaving the chroma untouched. The image is converted to CIE L*a*b*, L* is
// quantized to 8 bits, equalized, and the pixels are converted back.
func CLAHE(img *image.NRGBA, p CLAHEParams) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if w == 0 || h == 0 {
		return out
	}

	lightness := make([]uint8, w*h)
	chroma := make([][2]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := out.PixOffset(x, y)
			l, a, b := colorful.Color{
				R: float64(out.Pix[i]) / 255,
				G: float64(out.Pix[i+1]) / 255,
				B: float64(out.Pix[i+2]) / 255,
			}.Lab()
			lightness[y*w+x] = clamp8(l * 255)
			chroma[y*w+x] = [2]float64{a, b}
		}
	}

	equalized := EqualizeAdaptive(lightness, w, h, p)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k := y*w + x
			if equalized[k] == lightness[k] {
				continue
			}
			c := colorful.Lab(float64(equalized[k])/255, chroma[k][0], chroma[k][1]).Clamped()
			r, g, b := c.RGB255()
			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = r, g, b
		}
	}
	return out
}

// EqualizeAdaptive runs contrast-limited adaptive histogram equalization on an
// 8-bit single-channel plane of size w×h.
func EqualizeAdaptive(plane []uint8, w, h int, p CLAHEParams) []uint8 {
	grid := max(p.TileGrid, 1)
	tileW := (w + grid - 1) / grid
	tileH := (h + grid - 1) / grid
	tileArea := tileW * tileH

	clip := 0
	if p.ClipLimit > 0 {
		clip = max(int(p.ClipLimit*float64(tileArea)/histBins), 1)
	}

	luts := make([][histBins]uint8, grid*grid)
	for ty := 0; ty < grid; ty++ {
		for tx := 0; tx < grid; tx++ {
			var hist [histBins]int
			for y := ty * tileH; y < (ty+1)*tileH; y++ {
				row := reflect101(y, h) * w
				for x := tx * tileW; x < (tx+1)*tileW; x++ {
					hist[plane[row+reflect101(x, w)]]++
				}
			}
			if clip > 0 {
				clipHistogram(&hist, clip)
			}
			luts[ty*grid+tx] = buildLUT(&hist, tileArea)
		}
	}

	out := make([]uint8, len(plane))
	invTW, invTH := 1/float64(tileW), 1/float64(tileH)
	for y := 0; y < h; y++ {
		ty1, ty2, ya := tileCoords(float64(y)*invTH-0.5, grid)
		for x := 0; x < w; x++ {
			tx1, tx2, xa := tileCoords(float64(x)*invTW-0.5, grid)
			v := plane[y*w+x]

			top := float64(luts[ty1*grid+tx1][v])*(1-xa) + float64(luts[ty1*grid+tx2][v])*xa
			bottom := float64(luts[ty2*grid+tx1][v])*(1-xa) + float64(luts[ty2*grid+tx2][v])*xa
			out[y*w+x] = clamp8(top*(1-ya) + bottom*ya)
		}
	}
	return out
}

// tileCoords returns the two neighbouring tile indices for a position measured
// in tiles and the weight of the second one.
func tileCoords(pos float64, grid int) (int, int, float64) {
	t1 := int(math.Floor(pos))
	t2 := t1 + 1
	frac := pos - float64(t1)
	t1 = max(t1, 0)
	t2 = min(t2, grid-1)
	return t1, t2, frac
}

// clipHistogram caps every bin at limit and spreads the excess evenly.
func clipHistogram(hist *[histBins]int, limit int) {
	clipped := 0
	for i, n := range hist {
		if n > limit {
			clipped += n - limit
			hist[i] = limit
		}
	}

	batch := clipped / histBins
	residual := clipped - batch*histBins
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := max(histBins/residual, 1)
		for i := 0; i < histBins && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}
}

func buildLUT(hist *[histBins]int, area int) [histBins]uint8 {
	var lut [histBins]uint8
	scale := float64(histBins-1) / float64(area)
	sum := 0
	for i, n := range hist {
		sum += n
		lut[i] = clamp8(float64(sum) * scale)
	}
	return lut
}
