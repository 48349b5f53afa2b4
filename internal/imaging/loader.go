package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// supportedExtensions lists the file extensions treated as photos.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsPhotoFile reports whether path has an extension the loader can decode.
func IsPhotoFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// ImageCache provides thread-safe caching of decoded photos to avoid redundant disk reads.
//
// Cached buffers are shared between callers and must be treated as read-only.
// The processing pipeline clones its input, so passing a cached buffer to it is safe.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*Buffer
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*Buffer),
	}
}

// Load retrieves a photo from the cache or decodes it from disk if not cached.
//
// The photo is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) will result in separate cache entries.
func (c *ImageCache) Load(path string) (*Buffer, error) {
	c.mu.RLock()
	if buf, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return buf, nil
	}
	c.mu.RUnlock()

	buf, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = buf
	c.mu.Unlock()

	return buf, nil
}

// Clear removes all photos from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Buffer)
	c.mu.Unlock()
}

// Evict removes a specific photo from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// LoadFile reads and decodes a photo without caching it.
func LoadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return Decode(data)
}

// Decode turns encoded image bytes into a Buffer.
//
// For JPEG input the EXIF payload and ICC profile are captured alongside the
// pixels. Orientation is not applied here; see AutoOrient.
func Decode(data []byte) (*Buffer, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	buf := NewBuffer(img)
	if buf.Empty() {
		return nil, fmt.Errorf("failed to decode image: %w", ErrEmptyImage)
	}
	buf.Format = format

	if format == "jpeg" {
		buf.Exif = exifPayload(data)
		buf.ICCProfile = extractICC(data)
	}
	return buf, nil
}

// PhotoInfo contains metadata about a photo file.
type PhotoInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoded container format ("jpeg", "png", ...).
	Format string `json:"format"`

	// HasExif indicates whether an EXIF payload was found (JPEG only).
	HasExif bool `json:"has_exif"`

	// Orientation is the EXIF orientation value 1-8, or 0 when unknown.
	Orientation int `json:"orientation"`

	// HasColorProfile indicates whether an embedded ICC profile was found.
	HasColorProfile bool `json:"has_color_profile"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadPhotoInfo loads a photo through the cache and describes it.
func LoadPhotoInfo(cache *ImageCache, path string) (*PhotoInfo, error) {
	buf, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &PhotoInfo{
		Width:           buf.Width(),
		Height:          buf.Height(),
		Format:          buf.Format,
		HasExif:         buf.HasExif(),
		HasColorProfile: len(buf.ICCProfile) > 0,
		FileSizeBytes:   stat.Size(),
	}
	if o, err := Orientation(buf.Exif); err == nil {
		info.Orientation = o
	}
	return info, nil
}
