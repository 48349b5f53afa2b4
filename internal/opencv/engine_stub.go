//go:build !gocv

package opencv

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/photo-touchup-mcp/internal/enhance"
	photo "github.com/ironsheep/photo-touchup-mcp/internal/imaging"
	"github.com/ironsheep/photo-touchup-mcp/internal/rectify"
)

// Engine is a placeholder; it cannot be obtained from New in this build.
type Engine struct{}

// Available reports whether the OpenCV engine was compiled in.
func Available() bool { return false }

// New always fails with ErrUnavailable in builds without the gocv tag.
func New() (*Engine, error) {
	return nil, ErrUnavailable
}

func (e *Engine) Name() string { return Name }

func (e *Engine) Rectify(buf *photo.Buffer, _ rectify.Options) *rectify.Result {
	return rectify.Unchanged(buf, ErrUnavailable.Error())
}

func (e *Engine) Bilateral(img *image.NRGBA, _ enhance.BilateralParams) *image.NRGBA {
	return imaging.Clone(img)
}

func (e *Engine) CLAHE(img *image.NRGBA, _ enhance.CLAHEParams) *image.NRGBA {
	return imaging.Clone(img)
}

func (e *Engine) Sharpen(img *image.NRGBA, _ enhance.SharpenParams) *image.NRGBA {
	return imaging.Clone(img)
}
