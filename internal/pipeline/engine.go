package pipeline

import (
	"fmt"
	"image"

	"github.com/ironsheep/photo-touchup-mcp/internal/config"
	"github.com/ironsheep/photo-touchup-mcp/internal/enhance"
	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
	"github.com/ironsheep/photo-touchup-mcp/internal/opencv"
	"github.com/ironsheep/photo-touchup-mcp/internal/rectify"
)

// Engine does the pixel work of the auto-crop and the three filter stages.
type Engine interface {
	Name() string
	Rectify(buf *imaging.Buffer, opts rectify.Options) *rectify.Result
	Bilateral(img *image.NRGBA, p enhance.BilateralParams) *image.NRGBA
	CLAHE(img *image.NRGBA, p enhance.CLAHEParams) *image.NRGBA
	Sharpen(img *image.NRGBA, p enhance.SharpenParams) *image.NRGBA
}

type nativeEngine struct{}

// Native returns the pure-Go engine.
func Native() Engine { return nativeEngine{} }

func (nativeEngine) Name() string { return config.EngineNative }

func (nativeEngine) Rectify(buf *imaging.Buffer, opts rectify.Options) *rectify.Result {
	return rectify.Rectify(buf, opts)
}

func (nativeEngine) Bilateral(img *image.NRGBA, p enhance.BilateralParams) *image.NRGBA {
	return enhance.Bilateral(img, p)
}

func (nativeEngine) CLAHE(img *image.NRGBA, p enhance.CLAHEParams) *image.NRGBA {
	return enhance.CLAHE(img, p)
}

func (nativeEngine) Sharpen(img *image.NRGBA, p enhance.SharpenParams) *image.NRGBA {
	return enhance.Sharpen(img, p)
}

// NewEngine returns the engine with the given config name. An empty name selects
// the native engine.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", config.EngineNative:
		return Native(), nil
	case config.EngineOpenCV:
		e, err := opencv.New()
		if err != nil {
			return nil, fmt.Errorf("engine %q: %w", name, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", config.ErrInvalidSettings, name)
	}
}
