package pipeline

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photo-touchup-mcp/internal/config"
	"github.com/ironsheep/photo-touchup-mcp/internal/detection"
	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
	"github.com/ironsheep/photo-touchup-mcp/internal/rectify"
)

// Stage names, in execution order.
const (
	StageOrient   = "orient"
	StageCrop     = "crop"
	StageRotate   = "rotate"
	StageDenoise  = "denoise"
	StageContrast = "contrast"
	StageSharpen  = "sharpen"
)

// StageReport describes what one stage did.
type StageReport struct {
	Stage   string `json:"stage"`
	Applied bool   `json:"applied"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of Process.
type Result struct {
	// Image is never empty when the input was not.
	Image *imaging.Buffer `json:"-"`

	// OK is false when a stage failed and was skipped.
	OK bool `json:"ok"`

	Width  int           `json:"width"`
	Height int           `json:"height"`
	Stages []StageReport `json:"stages"`

	// Rectify is set when the auto_color_bg crop ran.
	Rectify *rectify.Result `json:"rectify,omitempty"`
}

// Pipeline applies Settings to photos with a fixed engine.
type Pipeline struct {
	engine  Engine
	log     logrus.FieldLogger
	quality int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEngine selects the pixel engine. The default is Native().
func WithEngine(e Engine) Option {
	return func(p *Pipeline) { p.engine = e }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithJPEGQuality sets the quality ProcessFiles saves JPEGs with.
func WithJPEGQuality(q int) Option {
	return func(p *Pipeline) { p.quality = q }
}

// New creates a pipeline.
func New(opts ...Option) *Pipeline {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	p := &Pipeline{
		engine:  Native(),
		log:     quiet,
		quality: imaging.DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Engine returns the engine in use.
func (p *Pipeline) Engine() Engine { return p.engine }

// Process runs every enabled stage over a copy of buf. The input is not modified.
func (p *Pipeline) Process(buf *imaging.Buffer, s config.Settings) *Result {
	res := &Result{OK: true}
	if buf.Empty() {
		res.Image = buf.Clone()
		res.OK = false
		p.log.Warn("Nothing to process: empty image")
		return res
	}

	run := &run{p: p, res: res, cur: buf.Clone()}

	if s.AutoOrient {
		run.stage(StageOrient, func(b *imaging.Buffer) (*imaging.Buffer, string, error) {
			out, err := imaging.AutoOrient(b)
			switch {
			case errors.Is(err, imaging.ErrNoOrientation):
				return nil, "no orientation tag", nil
			case err != nil:
				p.log.WithError(err).Warn("Could not read orientation, leaving pixels as they are")
				return nil, "orientation unreadable", nil
			}
			return out, "", nil
		})
	}

	// Tags are taken after orientation so the orientation tag is no longer stale.
	exif, icc := run.cur.Exif, run.cur.ICCProfile

	run.stage(StageCrop, func(b *imaging.Buffer) (*imaging.Buffer, string, error) {
		return p.crop(b, s, res)
	})

	if math.Mod(s.Rotation, 360) != 0 {
		run.stage(StageRotate, func(b *imaging.Buffer) (*imaging.Buffer, string, error) {
			return imaging.Rotate(b, s.Rotation), fmt.Sprintf("%g°", s.Rotation), nil
		})
	}
	if s.UseBilateral {
		run.stage(StageDenoise, func(b *imaging.Buffer) (*imaging.Buffer, string, error) {
			return b.WithImage(p.engine.Bilateral(b.Image, s.Bilateral)), "", nil
		})
	}
	if s.UseCLAHE {
		run.stage(StageContrast, func(b *imaging.Buffer) (*imaging.Buffer, string, error) {
			return b.WithImage(p.engine.CLAHE(b.Image, s.CLAHE)), "", nil
		})
	}
	if s.UseSharpen {
		run.stage(StageSharpen, func(b *imaging.Buffer) (*imaging.Buffer, string, error) {
			return b.WithImage(p.engine.Sharpen(b.Image, s.Sharpen)), "", nil
		})
	}

	res.Image = &imaging.Buffer{
		Image:      run.cur.Image,
		Exif:       cloneBytes(exif),
		ICCProfile: cloneBytes(icc),
		Format:     buf.Format,
	}
	res.Width, res.Height = res.Image.Width(), res.Image.Height()
	return res
}

// crop applies the single crop mode of s.
func (p *Pipeline) crop(b *imaging.Buffer, s config.Settings, res *Result) (*imaging.Buffer, string, error) {
	switch s.CropMode {
	case config.CropNone, "":
		return nil, "none", nil
	case config.CropPercent:
		return imaging.CropPercent(b, s.CropPercent), string(s.CropMode), nil
	case config.CropManual:
		if s.ManualCropBox == nil {
			return nil, "manual crop without a box", nil
		}
		return imaging.CropBox(b, *s.ManualCropBox), string(s.CropMode), nil
	case config.CropAutoColorBG:
		r := p.engine.Rectify(b, rectify.Options{
			Background:   s.Background(),
			InwardOffset: s.InwardOffset,
			Quad:         detection.DefaultQuadOptions,
		})
		res.Rectify = r
		detail := r.Reason
		if detail == "" {
			detail = fmt.Sprintf("rectified to %dx%d", r.Width, r.Height)
		}
		return r.Image, detail, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown crop mode %q", config.ErrInvalidSettings, s.CropMode)
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// run tracks the working buffer of one Process call.
type run struct {
	p   *Pipeline
	res *Result
	cur *imaging.Buffer
}

// stage runs fn on the working buffer. A nil buffer from fn means "skipped". An
// error, a panic or an empty buffer keeps the previous buffer and marks the
// result not OK.
func (r *run) stage(name string, fn func(*imaging.Buffer) (*imaging.Buffer, string, error)) {
	rep := StageReport{Stage: name}
	log := r.p.log.WithFields(logrus.Fields{"stage": name, "engine": r.p.engine.Name()})

	out, detail, err := r.call(fn)
	rep.Detail = detail

	switch {
	case err != nil:
		rep.Error = err.Error()
		log.WithError(err).Warn("Stage failed, keeping previous image")
	case out == nil:
	case out.Empty():
		rep.Error = "stage produced an empty image"
		err = imaging.ErrEmptyImage
		log.Warn("Stage produced an empty image, keeping previous image")
	default:
		r.cur = out
		rep.Applied = true
	}
	if err != nil {
		r.res.OK = false
	}

	rep.Width, rep.Height = r.cur.Width(), r.cur.Height()
	log.WithFields(logrus.Fields{
		"width":   rep.Width,
		"height":  rep.Height,
		"applied": rep.Applied,
	}).Debug(detailOr(detail, "stage done"))
	r.res.Stages = append(r.res.Stages, rep)
}

// call runs fn on the working buffer and turns a panic into an error.
func (r *run) call(fn func(*imaging.Buffer) (*imaging.Buffer, string, error)) (out *imaging.Buffer, detail string, err error) {
	defer func() {
		if v := recover(); v != nil {
			r.p.log.WithField("panic", v).Error("Stage panicked")
			out, err = nil, fmt.Errorf("stage panicked: %v", v)
		}
	}()
	return fn(r.cur)
}

func detailOr(detail, fallback string) string {
	if detail == "" {
		return fallback
	}
	return detail
}
