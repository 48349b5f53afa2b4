package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSV is a colour on the 8-bit HSV scale: hue 0-179, saturation 0-255, value 0-255.
type HSV [3]int

// Valid reports whether every channel lies on the 8-bit HSV scale.
func (h HSV) Valid() bool {
	return h[0] >= 0 && h[0] <= 179 &&
		h[1] >= 0 && h[1] <= 255 &&
		h[2] >= 0 && h[2] <= 255
}

// HSVRange is an inclusive background colour range.
type HSVRange struct {
	Lower HSV `json:"lower" toml:"lower"`
	Upper HSV `json:"upper" toml:"upper"`
}

// Valid reports whether both bounds are on scale and Lower <= Upper per channel.
func (r HSVRange) Valid() bool {
	if !r.Lower.Valid() || !r.Upper.Valid() {
		return false
	}
	for i := range r.Lower {
		if r.Lower[i] > r.Upper[i] {
			return false
		}
	}
	return true
}

// Contains reports whether c lies inside the range, bounds included.
func (r HSVRange) Contains(c HSV) bool {
	for i := range c {
		if c[i] < r.Lower[i] || c[i] > r.Upper[i] {
			return false
		}
	}
	return true
}

// ToHSV converts an 8-bit RGB colour to the 8-bit HSV scale.
func ToHSV(r, g, b uint8) HSV {
	h, s, v := colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}.Hsv()

	hue := int(math.Round(h/2)) % 180
	return HSV{hue, int(math.Round(s * 255)), int(math.Round(v * 255))}
}

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSVSample is the colour of one pixel in the representations a user needs to
// choose background bounds.
type HSVSample struct {
	X   int      `json:"x"`
	Y   int      `json:"y"`
	Hex string   `json:"hex"`
	RGB RGBColor `json:"rgb"`
	HSV HSV      `json:"hsv"`
}

// SampleHSV reads the colour at (x, y).
//
// Coordinates are 0-based with origin at top-left. An error is returned when the
// point is outside the image bounds.
func SampleHSV(img image.Image, x, y int) (*HSVSample, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return &HSVSample{
		X:   x,
		Y:   y,
		Hex: fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B),
		RGB: RGBColor{R: c.R, G: c.G, B: c.B},
		HSV: ToHSV(c.R, c.G, c.B),
	}, nil
}

// SampleRegionHSV reports the per-channel minimum and maximum HSV inside r,
// clipped to the image. It is a starting point for a background range when the
// user samples a patch of mat rather than a single pixel.
func SampleRegionHSV(img image.Image, r image.Rectangle) (HSVRange, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return HSVRange{}, fmt.Errorf("region outside image bounds")
	}

	out := HSVRange{Lower: HSV{179, 255, 255}}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			hsv := ToHSV(c.R, c.G, c.B)
			for i := range hsv {
				out.Lower[i] = min(out.Lower[i], hsv[i])
				out.Upper[i] = max(out.Upper[i], hsv[i])
			}
		}
	}
	return out, nil
}
