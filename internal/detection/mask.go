package detection

import (
	"image"

	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
)

// Mask is a binary image. Pix is row-major, true marks foreground.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask returns an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is foreground. Points outside the mask are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y) as foreground or background.
func (m *Mask) Set(x, y int, v bool) {
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Gray renders the mask as black background and white foreground.
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v {
			g.Pix[i] = 0xff
		}
	}
	return g
}

// PhotoMask marks every pixel whose colour lies outside the background range.
func PhotoMask(img *image.NRGBA, background imaging.HSVRange) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())

	for y := 0; y < m.Height; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < m.Width; x++ {
			p := row[x*4 : x*4+3]
			hsv := imaging.ToHSV(p[0], p[1], p[2])
			m.Pix[y*m.Width+x] = !background.Contains(hsv)
		}
	}
	return m
}
