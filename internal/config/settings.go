package config

import (
	"errors"
	"fmt"

	"github.com/ironsheep/photo-touchup-mcp/internal/enhance"
	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
	"github.com/ironsheep/photo-touchup-mcp/internal/rectify"
)

// ErrInvalidSettings is wrapped by every Validate failure.
var ErrInvalidSettings = errors.New("invalid settings")

// CropMode selects the single crop strategy of a run.
type CropMode string

const (
	CropNone        CropMode = "none"
	CropPercent     CropMode = "percent"
	CropManual      CropMode = "manual"
	CropAutoColorBG CropMode = "auto_color_bg"
)

// Valid reports whether m is a known crop mode.
func (m CropMode) Valid() bool {
	switch m {
	case CropNone, CropPercent, CropManual, CropAutoColorBG:
		return true
	}
	return false
}

// Settings is the full set of knobs for one processing run.
type Settings struct {
	AutoOrient bool `json:"auto_orient" toml:"auto_orient"`

	CropMode      CropMode            `json:"crop_mode" toml:"crop_mode"`
	CropPercent   imaging.Percentages `json:"crop_percent" toml:"crop_percent"`
	ManualCropBox *imaging.Box        `json:"manual_crop_box,omitempty" toml:"manual_crop_box,omitempty"`

	// HSVLower and HSVUpper bound the mat colour for auto_color_bg.
	HSVLower     imaging.HSV `json:"hsv_lower" toml:"hsv_lower"`
	HSVUpper     imaging.HSV `json:"hsv_upper" toml:"hsv_upper"`
	InwardOffset int         `json:"inward_offset" toml:"inward_offset"`

	// Rotation is in degrees, counter-clockwise.
	Rotation float64 `json:"rotation" toml:"rotation"`

	UseBilateral bool                    `json:"use_bilateral" toml:"use_bilateral"`
	Bilateral    enhance.BilateralParams `json:"bilateral" toml:"bilateral"`
	UseCLAHE     bool                    `json:"use_clahe" toml:"use_clahe"`
	CLAHE        enhance.CLAHEParams     `json:"clahe" toml:"clahe"`
	UseSharpen   bool                    `json:"use_sharpen" toml:"use_sharpen"`
	Sharpen      enhance.SharpenParams   `json:"sharpen" toml:"sharpen"`
}

// DefaultCropPercent is trimmed from each edge in percent mode.
const DefaultCropPercent = 2.0

// DefaultSettings auto-orients, auto-crops a pale-blue mat and runs every
// enhancement stage.
func DefaultSettings() Settings {
	return Settings{
		AutoOrient: true,
		CropMode:   CropAutoColorBG,
		CropPercent: imaging.Percentages{
			Top:    DefaultCropPercent,
			Right:  DefaultCropPercent,
			Bottom: DefaultCropPercent,
			Left:   DefaultCropPercent,
		},
		HSVLower:     rectify.DefaultBackground.Lower,
		HSVUpper:     rectify.DefaultBackground.Upper,
		InwardOffset: rectify.DefaultInwardOffset,
		UseBilateral: true,
		Bilateral:    enhance.DefaultBilateral,
		UseCLAHE:     true,
		CLAHE:        enhance.DefaultCLAHE,
		UseSharpen:   true,
		Sharpen:      enhance.DefaultSharpen,
	}
}

// Background returns the configured mat colour range.
func (s Settings) Background() imaging.HSVRange {
	return imaging.HSVRange{Lower: s.HSVLower, Upper: s.HSVUpper}
}

// Validate checks the invariants the pipeline relies on: exactly one known crop
// mode with the parameters it needs. Filter parameters are not range-checked.
func (s Settings) Validate() error {
	if !s.CropMode.Valid() {
		return fmt.Errorf("%w: unknown crop mode %q", ErrInvalidSettings, s.CropMode)
	}

	switch s.CropMode {
	case CropPercent:
		p := s.CropPercent
		for _, v := range []float64{p.Top, p.Right, p.Bottom, p.Left} {
			if v < 0 || v > 100 {
				return fmt.Errorf("%w: crop percentage %g outside 0..100", ErrInvalidSettings, v)
			}
		}
	case CropManual:
		if s.ManualCropBox == nil {
			return fmt.Errorf("%w: manual crop mode needs manual_crop_box", ErrInvalidSettings)
		}
	case CropAutoColorBG:
		if !s.Background().Valid() {
			return fmt.Errorf("%w: hsv range %v..%v", ErrInvalidSettings, s.HSVLower, s.HSVUpper)
		}
	}

	if s.InwardOffset < 0 {
		return fmt.Errorf("%w: negative inward offset %d", ErrInvalidSettings, s.InwardOffset)
	}
	return nil
}

// Resolve returns *override when it is set and def otherwise.
func Resolve[T any](override *T, def T) T {
	if override != nil {
		return *override
	}
	return def
}
