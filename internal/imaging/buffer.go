package imaging

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned when an operation receives a buffer without pixels.
var ErrEmptyImage = errors.New("image is empty")

// Buffer is a decoded photo plus the metadata preserved across processing.
type Buffer struct {
	// Image holds the pixels. Bounds always start at (0,0).
	Image *image.NRGBA

	// Exif is the raw EXIF payload (TIFF structure, without the "Exif\0\0" header).
	// Nil when the source carried none; never synthesized.
	Exif []byte

	// ICCProfile is the embedded colour profile, nil when absent.
	ICCProfile []byte

	// Format is the container the buffer was decoded from ("jpeg", "png", ...).
	Format string
}

// NewBuffer wraps an image in a Buffer, converting it to NRGBA with bounds at the origin.
func NewBuffer(img image.Image) *Buffer {
	return &Buffer{Image: toNRGBA(img)}
}

// Empty reports whether the buffer has no usable pixels.
func (b *Buffer) Empty() bool {
	return b == nil || b.Image == nil || b.Image.Bounds().Empty()
}

// Width returns the width in pixels, or 0 for an empty buffer.
func (b *Buffer) Width() int {
	if b.Empty() {
		return 0
	}
	return b.Image.Bounds().Dx()
}

// Height returns the height in pixels, or 0 for an empty buffer.
func (b *Buffer) Height() int {
	if b.Empty() {
		return 0
	}
	return b.Image.Bounds().Dy()
}

// HasExif reports whether the buffer carries a preserved EXIF payload.
func (b *Buffer) HasExif() bool {
	return b != nil && len(b.Exif) > 0
}

// Clone returns a deep copy of the buffer, pixels and metadata included.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	out := &Buffer{Format: b.Format}
	if b.Image != nil {
		out.Image = imaging.Clone(b.Image)
	}
	if b.Exif != nil {
		out.Exif = append([]byte(nil), b.Exif...)
	}
	if b.ICCProfile != nil {
		out.ICCProfile = append([]byte(nil), b.ICCProfile...)
	}
	return out
}

// WithImage returns a shallow copy of the buffer that holds img instead of the
// current pixels. Metadata slices are shared, not copied.
func (b *Buffer) WithImage(img *image.NRGBA) *Buffer {
	return &Buffer{
		Image:      img,
		Exif:       b.Exif,
		ICCProfile: b.ICCProfile,
		Format:     b.Format,
	}
}

// toNRGBA converts any image to an opaque *image.NRGBA with bounds starting at (0,0).
// Already-conforming images are returned as is.
func toNRGBA(img image.Image) *image.NRGBA {
	if img == nil {
		return nil
	}
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) && n.Opaque() {
		return n
	}
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
