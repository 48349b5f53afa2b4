package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
	"github.com/ironsheep/photo-touchup-mcp/internal/rectify"
)

// writeConfig writes content to name inside a temp dir and returns the path.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(t.TempDir(), "nope.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Engine != EngineNative {
				t.Errorf("engine = %q, want %q", cfg.Engine, EngineNative)
			}
			if cfg.JPEGQuality != imaging.DefaultJPEGQuality {
				t.Errorf("jpeg_quality = %d, want %d", cfg.JPEGQuality, imaging.DefaultJPEGQuality)
			}
			if len(cfg.HSVPresets) != len(rectify.DefaultPresets) {
				t.Errorf("presets = %d, want %d", len(cfg.HSVPresets), len(rectify.DefaultPresets))
			}
			if cfg.Defaults.CropMode != CropAutoColorBG {
				t.Errorf("crop mode = %q, want %q", cfg.Defaults.CropMode, CropAutoColorBG)
			}
		})
	}
}

func TestLoad_JSONOverridesOnlyGivenFields(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"jpeg_quality": 80,
		"defaults": {"crop_mode": "percent", "crop_percent": {"top": 10, "right": 0, "bottom": 10, "left": 0}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JPEGQuality != 80 {
		t.Errorf("jpeg_quality = %d, want 80", cfg.JPEGQuality)
	}
	if cfg.Defaults.CropMode != CropPercent || cfg.Defaults.CropPercent.Top != 10 {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
	if cfg.Engine != EngineNative {
		t.Errorf("engine = %q, want default %q", cfg.Engine, EngineNative)
	}
	if cfg.Defaults.InwardOffset != rectify.DefaultInwardOffset {
		t.Errorf("inward_offset = %d, want default %d", cfg.Defaults.InwardOffset, rectify.DefaultInwardOffset)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
engine = "opencv"
jpeg_quality = 90

[defaults]
crop_mode = "auto_color_bg"
hsv_lower = [95, 50, 110]
hsv_upper = [125, 255, 255]
inward_offset = 8

[defaults.clahe]
clip_limit = 3.0
tile_grid = 4

[[hsv_presets]]
name = "Green Mat"
lower = [35, 40, 60]
upper = [85, 255, 255]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine != EngineOpenCV {
		t.Errorf("engine = %q, want %q", cfg.Engine, EngineOpenCV)
	}
	if want := (imaging.HSV{95, 50, 110}); cfg.Defaults.HSVLower != want {
		t.Errorf("hsv_lower = %v, want %v", cfg.Defaults.HSVLower, want)
	}
	if cfg.Defaults.InwardOffset != 8 {
		t.Errorf("inward_offset = %d, want 8", cfg.Defaults.InwardOffset)
	}
	if cfg.Defaults.CLAHE.TileGrid != 4 || cfg.Defaults.CLAHE.ClipLimit != 3.0 {
		t.Errorf("clahe = %+v", cfg.Defaults.CLAHE)
	}
	if len(cfg.HSVPresets) != 1 || cfg.HSVPresets[0].Name != "Green Mat" {
		t.Errorf("presets = %+v", cfg.HSVPresets)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name, file, content string
		invalid             bool
	}{
		{"bad json", "c.json", `{"engine":`, false},
		{"bad toml", "c.toml", `engine = `, false},
		{"unknown engine", "c.json", `{"engine": "gpu"}`, true},
		{"quality out of range", "c.json", `{"jpeg_quality": 0}`, true},
		{"unknown crop mode", "c.json", `{"defaults": {"crop_mode": "magic"}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrInvalidSettings); got != tt.invalid {
				t.Errorf("errors.Is(ErrInvalidSettings) = %v, want %v (%v)", got, tt.invalid, err)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "env.json", `{"jpeg_quality": 70}`)
	t.Setenv(EnvConfigPath, path)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.JPEGQuality != 70 {
		t.Errorf("jpeg_quality = %d, want 70", cfg.JPEGQuality)
	}
}

func TestDefault_PresetsAreACopy(t *testing.T) {
	cfg := Default()
	cfg.HSVPresets[0].Name = "changed"
	if rectify.DefaultPresets[0].Name == "changed" {
		t.Error("Default shares its preset slice with rectify.DefaultPresets")
	}
}
