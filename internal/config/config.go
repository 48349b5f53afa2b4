package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
	"github.com/ironsheep/photo-touchup-mcp/internal/rectify"
)

// Environment variables read by the program.
const (
	EnvConfigPath = "PHOTO_TOUCHUP_CONFIG"
	EnvLogLevel   = "PHOTO_TOUCHUP_LOG_LEVEL"
)

// Engine names.
const (
	EngineNative = "native"
	EngineOpenCV = "opencv"
)

// Config is the application config file.
type Config struct {
	Engine      string           `json:"engine" toml:"engine"`
	JPEGQuality int              `json:"jpeg_quality" toml:"jpeg_quality"`
	Defaults    Settings         `json:"defaults" toml:"defaults"`
	HSVPresets  []rectify.Preset `json:"hsv_presets" toml:"hsv_presets"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine:      EngineNative,
		JPEGQuality: imaging.DefaultJPEGQuality,
		Defaults:    DefaultSettings(),
		HSVPresets:  append([]rectify.Preset(nil), rectify.DefaultPresets...),
	}
}

// Load reads the config file at path over the built-in defaults. An empty path
// or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by PHOTO_TOUCHUP_CONFIG.
func LoadFromEnv() (*Config, error) {
	return Load(getEnv(EnvConfigPath, ""))
}

// Validate checks the engine name, the JPEG quality and the default settings.
func (c *Config) Validate() error {
	if c.Engine != EngineNative && c.Engine != EngineOpenCV {
		return fmt.Errorf("%w: unknown engine %q", ErrInvalidSettings, c.Engine)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg_quality %d outside 1..100", ErrInvalidSettings, c.JPEGQuality)
	}
	return c.Defaults.Validate()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
