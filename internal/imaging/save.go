package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrTagsUnsupported is returned when the destination container cannot carry the
// preserved EXIF payload or colour profile.
var ErrTagsUnsupported = errors.New("format cannot carry exif or icc data")

// DefaultJPEGQuality is used when the caller passes a quality outside 1-100.
const DefaultJPEGQuality = 95

// Save step identifiers reported in SaveResult.
const (
	SaveWithMetadata = "with_metadata"
	SavePixelsOnly   = "pixels_only"
	SaveAlternate    = "alternate_format"
)

// SaveResult describes where and how a buffer was written.
type SaveResult struct {
	// Path is the file actually written; it differs from the requested path
	// only when the alternate-format fallback was used.
	Path string `json:"path"`

	// Step names the fallback step that succeeded.
	Step string `json:"step"`

	// MetadataWritten reports whether EXIF and ICC data made it into the file.
	MetadataWritten bool `json:"metadata_written"`
}

// Save writes buf to path, inferring the container from the extension.
//
// Three attempts are made in order, each only after the previous one failed:
// the pixels together with the preserved EXIF payload and ICC profile, the
// pixels alone, and finally a PNG next to the requested path. An error is
// returned only when all three fail.
func Save(buf *Buffer, path string, quality int) (*SaveResult, error) {
	if buf.Empty() {
		return nil, ErrEmptyImage
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	err1 := saveWithMetadata(buf, path, quality)
	if err1 == nil {
		return &SaveResult{Path: path, Step: SaveWithMetadata, MetadataWritten: hasMetadata(buf)}, nil
	}

	err2 := imaging.Save(buf.Image, path, imaging.JPEGQuality(quality))
	if err2 == nil {
		return &SaveResult{Path: path, Step: SavePixelsOnly}, nil
	}

	alt := alternatePath(path)
	err3 := imaging.Save(buf.Image, alt)
	if err3 == nil {
		return &SaveResult{Path: alt, Step: SaveAlternate}, nil
	}

	return nil, fmt.Errorf("failed to save %s: %w", path, errors.Join(err1, err2, err3))
}

func hasMetadata(buf *Buffer) bool {
	return len(buf.Exif) > 0 || len(buf.ICCProfile) > 0
}

func saveWithMetadata(buf *Buffer, path string, quality int) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return err
	}
	if hasMetadata(buf) && format != imaging.JPEG {
		return fmt.Errorf("%s: %w", format, ErrTagsUnsupported)
	}

	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, buf.Image, format, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	data := encoded.Bytes()
	if hasMetadata(buf) {
		data, err = injectMetadata(data, buf.Exif, buf.ICCProfile)
		if err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0o644)
}

// alternatePath swaps the extension for .png, or for .jpg when it already is .png.
func alternatePath(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if strings.EqualFold(ext, ".png") {
		return base + ".jpg"
	}
	return base + ".png"
}
