package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"
)

// PreviewResult is an encoded image ready to hand to a client.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePreview encodes img as PNG, downscaling so the longer side is at most
// maxSide pixels (0 disables scaling).
func EncodePreview(img image.Image, maxSide int) (*PreviewResult, error) {
	b := img.Bounds()
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	b = img.Bounds()
	return &PreviewResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// DrawQuad returns a copy of img with the closed polygon through corners drawn
// on top. Lines are thickness pixels wide; colorHex accepts "#RRGGBB" or
// "#RRGGBBAA" and falls back to opaque green when it cannot be parsed.
func DrawQuad(img image.Image, corners []image.Point, colorHex string, thickness int) *image.NRGBA {
	out := imaging.Clone(img)

	c, err := parseHexColor(colorHex)
	if err != nil {
		c = color.RGBA{0, 255, 0, 255}
	}
	if thickness < 1 {
		thickness = 1
	}

	for i := range corners {
		drawLine(out, corners[i], corners[(i+1)%len(corners)], c, thickness)
	}
	return out
}

// drawLine rasterizes a segment with Bresenham's algorithm, stamping a square
// brush at every step.
func drawLine(img *image.NRGBA, p0, p1 image.Point, c color.RGBA, thickness int) {
	dx := abs(p1.X - p0.X)
	dy := -abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}

	half := thickness / 2
	x, y := p0.X, p0.Y
	e := dx + dy
	for {
		for by := y - half; by < y-half+thickness; by++ {
			for bx := x - half; bx < x-half+thickness; bx++ {
				if (image.Point{bx, by}).In(img.Bounds()) {
					img.Set(bx, by, c)
				}
			}
		}
		if x == p1.X && y == p1.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
