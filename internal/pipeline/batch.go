package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photo-touchup-mcp/internal/config"
	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
)

// FileReport is the outcome for one file of a batch.
type FileReport struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	OK     bool   `json:"ok"`

	// SaveStep is the persistence step that succeeded.
	SaveStep string `json:"save_step,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BatchReport summarizes a ProcessFiles run.
type BatchReport struct {
	RunID     string       `json:"run_id"`
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Cancelled bool         `json:"cancelled,omitempty"`
	Files     []FileReport `json:"files"`
}

// ListPhotos returns the supported photo files directly inside dir, sorted by name.
func ListPhotos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imaging.IsPhotoFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ProcessFiles processes each path in turn and saves the result under outDir
// with the same base name. A failing file is counted and the loop moves on.
// Manual crop needs per-photo coordinates, so it is replaced by no crop.
// Cancelling ctx stops the loop before the next file.
func (p *Pipeline) ProcessFiles(ctx context.Context, paths []string, outDir string, s config.Settings) (*BatchReport, error) {
	report := &BatchReport{RunID: uuid.NewString(), Total: len(paths)}
	log := p.log.WithField("run_id", report.RunID)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if s.CropMode == config.CropManual {
		log.Warn("Manual crop is not available in batch mode, processing without crop")
		s.CropMode = config.CropNone
		s.ManualCropBox = nil
	}

	log.WithFields(logrus.Fields{"files": len(paths), "out_dir": outDir}).Info("Batch started")

	for _, path := range paths {
		if ctx.Err() != nil {
			report.Cancelled = true
			log.Warn("Batch cancelled")
			break
		}
		if !imaging.IsPhotoFile(path) {
			report.Skipped++
			continue
		}

		fr := p.processFile(log.WithField("file", filepath.Base(path)), path, outDir, s)
		if fr.OK {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.Files = append(report.Files, fr)
	}

	log.WithFields(logrus.Fields{
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	}).Info("Batch finished")
	return report, nil
}

func (p *Pipeline) processFile(log logrus.FieldLogger, path, outDir string, s config.Settings) (fr FileReport) {
	fr = FileReport{Input: path}
	defer func() {
		if v := recover(); v != nil {
			log.WithField("panic", v).Error("Processing panicked")
			fr.OK = false
			fr.Error = fmt.Sprintf("panic: %v", v)
		}
	}()

	buf, err := imaging.LoadFile(path)
	if err != nil {
		log.WithError(err).Warn("Failed to load")
		fr.Error = err.Error()
		return fr
	}

	res := p.Process(buf, s)
	fr.Width, fr.Height = res.Width, res.Height

	saved, err := imaging.Save(res.Image, filepath.Join(outDir, filepath.Base(path)), p.quality)
	if err != nil {
		log.WithError(err).Warn("Failed to save")
		fr.Error = err.Error()
		return fr
	}
	fr.Output = saved.Path
	fr.SaveStep = saved.Step
	fr.OK = res.OK
	if !res.OK {
		fr.Error = "one or more stages failed"
	}

	log.WithFields(logrus.Fields{"output": fr.Output, "save_step": fr.SaveStep}).Debug("Processed")
	return fr
}
