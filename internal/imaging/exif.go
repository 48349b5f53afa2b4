package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rwcarlsen/goexif/exif"
)

// ErrNoOrientation is returned when an EXIF payload has no usable Orientation tag.
var ErrNoOrientation = errors.New("no orientation tag")

const tagOrientation = 0x0112

// exifPayload returns the raw EXIF payload of a JPEG file, or nil.
func exifPayload(data []byte) []byte {
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || len(x.Raw) == 0 {
		return nil
	}
	if err != nil && exif.IsCriticalError(err) {
		return nil
	}
	return append([]byte(nil), x.Raw...)
}

// Orientation reads the EXIF orientation (1-8) from a raw EXIF payload.
func Orientation(raw []byte) (int, error) {
	if len(raw) == 0 {
		return 0, ErrNoOrientation
	}
	x, err := exif.Decode(bytes.NewReader(raw))
	if x == nil {
		return 0, fmt.Errorf("failed to decode exif: %w", err)
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0, ErrNoOrientation
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, fmt.Errorf("invalid orientation tag: %w", err)
	}
	if v < 1 || v > 8 {
		return 0, fmt.Errorf("orientation %d out of range: %w", v, ErrNoOrientation)
	}
	return v, nil
}

// withOrientation returns a copy of raw with the IFD0 Orientation entry set to v.
// Payloads without that entry, or that cannot be parsed, are copied unchanged.
func withOrientation(raw []byte, v uint16) []byte {
	out := append([]byte(nil), raw...)
	if len(out) < 8 {
		return out
	}

	var order binary.ByteOrder
	switch string(out[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return out
	}

	ifd := int(order.Uint32(out[4:8]))
	if ifd < 8 || ifd+2 > len(out) {
		return out
	}
	count := int(order.Uint16(out[ifd : ifd+2]))
	for i := 0; i < count; i++ {
		entry := ifd + 2 + i*12
		if entry+12 > len(out) {
			break
		}
		if order.Uint16(out[entry:entry+2]) != tagOrientation {
			continue
		}
		// SHORT with count 1 stores its value inline.
		if order.Uint16(out[entry+2:entry+4]) == 3 && order.Uint32(out[entry+4:entry+8]) == 1 {
			order.PutUint16(out[entry+8:entry+10], v)
		}
		break
	}
	return out
}
