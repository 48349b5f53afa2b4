package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid-colour PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := createInMemoryImage(width, height, c)

	path := filepath.Join(t.TempDir(), "test-image.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// createTestJPEG writes a JPEG carrying the given EXIF payload and ICC profile.
func createTestJPEG(t *testing.T, width, height int, exifRaw, icc []byte) string {
	t.Helper()
	buf := NewBuffer(createPatternImage(width, height))
	buf.Exif = exifRaw
	buf.ICCProfile = icc

	path := filepath.Join(t.TempDir(), "test-photo.jpg")
	res, err := Save(buf, path, 90)
	if err != nil {
		t.Fatalf("failed to save jpeg: %v", err)
	}
	if res.Step != SaveWithMetadata {
		t.Fatalf("jpeg saved via %s, want %s", res.Step, SaveWithMetadata)
	}
	return path
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.images == nil {
		t.Fatal("NewImageCache did not initialize images map")
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 80, color.RGBA{255, 0, 0, 255})

	buf1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if buf1.Width() != 100 || buf1.Height() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", buf1.Width(), buf1.Height())
	}
	if buf1.Format != "png" {
		t.Errorf("Format: got %q, want png", buf1.Format)
	}
	if buf1.HasExif() {
		t.Error("png input should not carry exif")
	}

	buf2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if buf1 != buf2 {
		t.Error("second Load did not return cached buffer")
	}
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Load("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}
}

func TestImageCache_Load_InvalidImage(t *testing.T) {
	cache := NewImageCache()

	path := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := cache.Load(path); err == nil {
		t.Error("Load should fail for invalid image data")
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	path1 := createTestImage(t, 10, 10, color.White)
	path2 := createTestImage(t, 20, 20, color.Black)

	if _, err := cache.Load(path1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := cache.Load(path2); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cache.Evict(path1)
	cache.Evict("/not/cached.png")
	if len(cache.images) != 1 {
		t.Errorf("after Evict: got %d entries, want 1", len(cache.images))
	}

	cache.Clear()
	if len(cache.images) != 0 {
		t.Errorf("after Clear: got %d entries, want 0", len(cache.images))
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 50, 50, color.RGBA{0, 0, 255, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
}

func TestDecode_CapturesJPEGMetadata(t *testing.T) {
	exifRaw := buildExif(6)
	icc := bytes.Repeat([]byte{0xAB}, 300)
	path := createTestJPEG(t, 40, 30, exifRaw, icc)

	buf, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if buf.Format != "jpeg" {
		t.Errorf("Format: got %q, want jpeg", buf.Format)
	}
	if !bytes.Equal(buf.Exif, exifRaw) {
		t.Errorf("Exif not preserved: got %d bytes, want %d", len(buf.Exif), len(exifRaw))
	}
	if !bytes.Equal(buf.ICCProfile, icc) {
		t.Errorf("ICC profile not preserved: got %d bytes, want %d", len(buf.ICCProfile), len(icc))
	}
}

func TestDecode_OpaqueNRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0x40
	}

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, src); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	buf, err := Decode(encoded.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !buf.Image.Opaque() {
		t.Error("decoded buffer should be opaque")
	}
}

func TestLoadPhotoInfo(t *testing.T) {
	cache := NewImageCache()
	path := createTestJPEG(t, 64, 48, buildExif(3), nil)

	info, err := LoadPhotoInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadPhotoInfo failed: %v", err)
	}

	if info.Width != 64 || info.Height != 48 {
		t.Errorf("dimensions: got %dx%d, want 64x48", info.Width, info.Height)
	}
	if !info.HasExif {
		t.Error("HasExif: got false, want true")
	}
	if info.Orientation != 3 {
		t.Errorf("Orientation: got %d, want 3", info.Orientation)
	}
	if info.HasColorProfile {
		t.Error("HasColorProfile: got true, want false")
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d, want > 0", info.FileSizeBytes)
	}
}

func TestIsPhotoFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.jpg", true},
		{"b.JPEG", true},
		{"c.png", true},
		{"d.tiff", true},
		{"e.webp", true},
		{"f.txt", false},
		{"noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsPhotoFile(tt.path); got != tt.want {
				t.Errorf("IsPhotoFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
