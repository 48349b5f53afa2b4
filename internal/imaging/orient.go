package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// AutoOrient re-renders the pixels upright according to the EXIF Orientation tag.
//
// When the buffer has no EXIF payload or the tag cannot be interpreted, an
// unmodified copy is returned together with the reason; callers treat that error
// as informational. After a successful transform the Orientation tag inside the
// preserved payload is rewritten to 1 so viewers do not rotate the image again.
func AutoOrient(buf *Buffer) (*Buffer, error) {
	out := buf.Clone()
	if out.Empty() {
		return out, ErrEmptyImage
	}

	orientation, err := Orientation(out.Exif)
	if err != nil {
		return out, err
	}

	var img *image.NRGBA
	switch orientation {
	case 1:
		return out, nil
	case 2:
		img = imaging.FlipH(out.Image)
	case 3:
		img = imaging.Rotate180(out.Image)
	case 4:
		img = imaging.FlipV(out.Image)
	case 5:
		img = imaging.Transpose(out.Image)
	case 6:
		img = imaging.Rotate270(out.Image)
	case 7:
		img = imaging.Transverse(out.Image)
	case 8:
		img = imaging.Rotate90(out.Image)
	}

	out.Image = img
	out.Exif = withOrientation(out.Exif, 1)
	return out, nil
}

// Rotate turns the image counterclockwise by angle degrees about its centre.
//
// The canvas grows so no content is clipped; uncovered corners are black.
// Multiples of 360 return an unmodified copy.
func Rotate(buf *Buffer, angle float64) *Buffer {
	if buf.Empty() || math.Mod(angle, 360) == 0 {
		return buf.Clone()
	}
	return buf.WithImage(imaging.Rotate(buf.Image, angle, color.Black))
}
