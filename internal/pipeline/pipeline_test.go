package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/ironsheep/photo-touchup-mcp/internal/config"
	"github.com/ironsheep/photo-touchup-mcp/internal/enhance"
	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
	"github.com/ironsheep/photo-touchup-mcp/internal/opencv"
)

// createMatBuffer draws a white w×h rectangle centred on a pale-blue mat.
func createMatBuffer(width, height, w, h int) *imaging.Buffer {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	x0, y0 := (width-w)/2, (height-h)/2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{150, 200, 230, 255}
			if x >= x0 && x < x0+w && y >= y0 && y < y0+h {
				c = color.NRGBA{255, 255, 255, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return imaging.NewBuffer(img)
}

// createNoiseBuffer fills an image with a fixed pseudo-random pattern.
func createNoiseBuffer(width, height int) *imaging.Buffer {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	seed := uint32(7)
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			seed = seed*1664525 + 1013904223
			img.Pix[i+c] = uint8(seed >> 24)
		}
		img.Pix[i+3] = 255
	}
	return imaging.NewBuffer(img)
}

// plainSettings disables every optional stage.
func plainSettings() config.Settings {
	s := config.DefaultSettings()
	s.AutoOrient = false
	s.CropMode = config.CropNone
	s.UseBilateral, s.UseCLAHE, s.UseSharpen = false, false, false
	return s
}

type panicEngine struct{ nativeEngine }

func (panicEngine) Sharpen(*image.NRGBA, enhance.SharpenParams) *image.NRGBA {
	panic("sharpen exploded")
}

type emptyEngine struct{ nativeEngine }

func (emptyEngine) CLAHE(*image.NRGBA, enhance.CLAHEParams) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, 0, 0))
}

func TestProcess_AutoCropEndToEnd(t *testing.T) {
	s := plainSettings()
	s.CropMode = config.CropAutoColorBG
	s.HSVLower = imaging.HSV{90, 40, 100}
	s.HSVUpper = imaging.HSV{130, 255, 255}
	s.InwardOffset = 5

	res := New().Process(createMatBuffer(1000, 800, 600, 400), s)

	if !res.OK {
		t.Fatalf("OK = false, stages = %+v", res.Stages)
	}
	if res.Rectify == nil || !res.Rectify.Effective {
		t.Fatalf("rectify = %+v, want effective", res.Rectify)
	}
	if math.Abs(float64(res.Width-590)) > 3 || math.Abs(float64(res.Height-390)) > 3 {
		t.Errorf("size = %dx%d, want about 590x390", res.Width, res.Height)
	}
	if got, want := float64(res.Width)/float64(res.Height), 590.0/390.0; math.Abs(got-want)/want > 0.05 {
		t.Errorf("aspect = %.3f, want %.3f within 5%%", got, want)
	}
}

func TestProcess_Deterministic(t *testing.T) {
	s := plainSettings()
	s.CropMode = config.CropPercent
	s.Rotation = 12
	s.UseBilateral, s.UseCLAHE, s.UseSharpen = true, true, true

	p := New()
	buf := createNoiseBuffer(48, 36)
	a := p.Process(buf, s)
	b := p.Process(buf, s)

	if !bytes.Equal(a.Image.Image.Pix, b.Image.Image.Pix) {
		t.Error("two runs produced different pixels")
	}
	if a.Width != b.Width || a.Height != b.Height {
		t.Errorf("sizes differ: %dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
}

func TestProcess_DoesNotModifyInput(t *testing.T) {
	s := plainSettings()
	s.UseBilateral, s.UseCLAHE, s.UseSharpen = true, true, true

	buf := createNoiseBuffer(20, 20)
	before := append([]uint8(nil), buf.Image.Pix...)
	New().Process(buf, s)

	if !bytes.Equal(buf.Image.Pix, before) {
		t.Error("input pixels were modified")
	}
}

func TestProcess_Geometry(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*config.Settings)
		wantW, wantH int
		identicalPix bool
	}{
		{"rotation 0 is identity", func(s *config.Settings) {}, 40, 20, true},
		{"rotation 360 is identity", func(s *config.Settings) { s.Rotation = 360 }, 40, 20, true},
		{"rotation 90 swaps sides", func(s *config.Settings) { s.Rotation = 90 }, 20, 40, false},
		{"zero percent crop", func(s *config.Settings) {
			s.CropMode = config.CropPercent
			s.CropPercent = imaging.Percentages{}
		}, 40, 20, true},
		{"top and bottom 49 percent", func(s *config.Settings) {
			s.CropMode = config.CropPercent
			s.CropPercent = imaging.Percentages{Top: 49, Bottom: 49}
		}, 40, 2, false},
		{"percent consuming everything", func(s *config.Settings) {
			s.CropMode = config.CropPercent
			s.CropPercent = imaging.Percentages{Left: 60, Right: 60}
		}, 40, 20, true},
		{"manual box", func(s *config.Settings) {
			s.CropMode = config.CropManual
			s.ManualCropBox = &imaging.Box{X1: 5, Y1: 2, X2: 25, Y2: 12}
		}, 20, 10, false},
		{"inverted manual box", func(s *config.Settings) {
			s.CropMode = config.CropManual
			s.ManualCropBox = &imaging.Box{X1: 30, Y1: 2, X2: 5, Y2: 12}
		}, 40, 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := plainSettings()
			tt.modify(&s)
			buf := createNoiseBuffer(40, 20)

			res := New().Process(buf, s)
			if !res.OK {
				t.Fatalf("OK = false, stages = %+v", res.Stages)
			}
			if res.Width != tt.wantW || res.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", res.Width, res.Height, tt.wantW, tt.wantH)
			}
			if tt.identicalPix && !bytes.Equal(res.Image.Image.Pix, buf.Image.Pix) {
				t.Error("pixels changed")
			}
		})
	}
}

func TestProcess_Tags(t *testing.T) {
	blob := []byte("not really exif, but opaque to the pipeline")
	icc := []byte("icc profile")

	tests := []struct {
		name       string
		exif, icc  []byte
		autoOrient bool
	}{
		{"tags carried", blob, icc, false},
		{"tags carried through unreadable orientation", blob, icc, true},
		{"no tags stay absent", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := createNoiseBuffer(30, 30)
			buf.Exif, buf.ICCProfile = tt.exif, tt.icc

			s := plainSettings()
			s.AutoOrient = tt.autoOrient
			s.Rotation = 45
			s.UseSharpen = true

			res := New().Process(buf, s)
			if !res.OK {
				t.Fatalf("OK = false, stages = %+v", res.Stages)
			}
			if !bytes.Equal(res.Image.Exif, tt.exif) || (tt.exif == nil) != (res.Image.Exif == nil) {
				t.Errorf("exif = %q, want %q", res.Image.Exif, tt.exif)
			}
			if !bytes.Equal(res.Image.ICCProfile, tt.icc) || (tt.icc == nil) != (res.Image.ICCProfile == nil) {
				t.Errorf("icc = %q, want %q", res.Image.ICCProfile, tt.icc)
			}
		})
	}
}

func TestProcess_StageOrderReported(t *testing.T) {
	s := plainSettings()
	s.AutoOrient = true
	s.CropMode = config.CropPercent
	s.Rotation = 10
	s.UseBilateral, s.UseCLAHE, s.UseSharpen = true, true, true

	res := New().Process(createNoiseBuffer(24, 24), s)

	want := []string{StageOrient, StageCrop, StageRotate, StageDenoise, StageContrast, StageSharpen}
	if len(res.Stages) != len(want) {
		t.Fatalf("stages = %+v, want %v", res.Stages, want)
	}
	for i, st := range res.Stages {
		if st.Stage != want[i] {
			t.Errorf("stage %d = %q, want %q", i, st.Stage, want[i])
		}
	}
	if res.Stages[0].Applied {
		t.Error("orientation applied without an orientation tag")
	}
}

func TestProcess_StagePanicRecovered(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	s := plainSettings()
	s.UseSharpen = true

	res := New(WithEngine(panicEngine{}), WithLogger(logger)).Process(createNoiseBuffer(16, 12), s)

	if res.OK {
		t.Error("OK = true after a panicking stage")
	}
	if res.Width != 16 || res.Height != 12 {
		t.Errorf("size = %dx%d, want 16x12", res.Width, res.Height)
	}
	last := res.Stages[len(res.Stages)-1]
	if last.Stage != StageSharpen || last.Applied || last.Error == "" {
		t.Errorf("sharpen report = %+v", last)
	}

	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			found = true
		}
	}
	if !found {
		t.Error("panic was not logged at error level")
	}
}

func TestProcess_EmptyStageOutputFallsBack(t *testing.T) {
	s := plainSettings()
	s.UseCLAHE = true
	buf := createNoiseBuffer(10, 10)

	res := New(WithEngine(emptyEngine{})).Process(buf, s)
	if res.OK {
		t.Error("OK = true after an empty stage result")
	}
	if !bytes.Equal(res.Image.Image.Pix, buf.Image.Pix) {
		t.Error("fallback image differs from the last good one")
	}
}

func TestProcess_EmptyInput(t *testing.T) {
	res := New().Process(&imaging.Buffer{}, plainSettings())
	if res.OK {
		t.Error("OK = true for an empty input")
	}
	if res.Image == nil {
		t.Error("Image = nil")
	}
}

func TestNewEngine(t *testing.T) {
	for _, name := range []string{"", config.EngineNative} {
		e, err := NewEngine(name)
		if err != nil || e.Name() != config.EngineNative {
			t.Errorf("NewEngine(%q) = %v, %v", name, e, err)
		}
	}

	_, err := NewEngine("quantum")
	if !errors.Is(err, config.ErrInvalidSettings) {
		t.Errorf("unknown engine err = %v, want ErrInvalidSettings", err)
	}

	e, err := NewEngine(config.EngineOpenCV)
	if opencv.Available() {
		if err != nil || e.Name() != config.EngineOpenCV {
			t.Errorf("NewEngine(opencv) = %v, %v", e, err)
		}
	} else if !errors.Is(err, opencv.ErrUnavailable) || e != nil {
		t.Errorf("NewEngine(opencv) = %v, %v, want ErrUnavailable", e, err)
	}
}
