// Package config holds the single parameter object that drives the mask
// vectorizer, and loads it from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ironsheep/mask-contour-mcp/internal/classify"
	"github.com/ironsheep/mask-contour-mcp/internal/contour"
	"github.com/ironsheep/mask-contour-mcp/internal/imaging"
	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// Export modes.
const (
	// ModeUnion vectorizes the union of all kept masks.
	ModeUnion = "union"

	// ModePerInstance vectorizes each kept mask separately.
	ModePerInstance = "per_instance"
)

// Environment variables read by the binary.
const (
	EnvConfigPath = "MASK_MCP_CONFIG"
	EnvLogLevel   = "MASK_MCP_LOG_LEVEL"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the full parameter set of one vectorization run.
type Config struct {
	Cleaner    raster.CleanerConfig     `json:"cleaner"`
	Simplifier contour.SimplifierConfig `json:"simplifier"`

	// MinContourAreaPx drops traced contours with a smaller area.
	MinContourAreaPx float64 `json:"min_contour_area_px"`

	Classifier classify.Params `json:"classifier"`

	// Policy selects the background policy: "heuristic" or "largest".
	Policy string `json:"policy"`

	// Mode selects the export mode: "union" or "per_instance".
	Mode string `json:"mode"`

	// Workers bounds per-instance concurrency. Zero means one per CPU.
	Workers int `json:"workers"`

	// MaskThreshold is the grey level at or above which a mask image pixel is
	// foreground.
	MaskThreshold uint8 `json:"mask_threshold"`

	// ColorMask configures the model-free colour-distance mask source.
	ColorMask imaging.ColorMaskOptions `json:"color_mask"`
}

// Default returns the tuned defaults.
func Default() Config {
	return Config{
		Cleaner:          raster.CleanerConfig{Open: true, Close: false, Iterations: 1},
		Simplifier:       contour.SimplifierConfig{EpsFraction: 0.01, MaxPoints: 256},
		MinContourAreaPx: 200,
		Classifier:       classify.DefaultParams(),
		Policy:           classify.PolicyHeuristic,
		Mode:             ModePerInstance,
		Workers:          0,
		MaskThreshold:    128,
		ColorMask: imaging.ColorMaskOptions{
			Border:          12,
			Threshold:       28,
			Metric:          imaging.MetricRGB,
			OpenIterations:  1,
			CloseIterations: 2,
		},
	}
}

// Validate checks every section. Errors wrap raster.ErrInvalidParameter.
func (c Config) Validate() error {
	if err := c.Cleaner.Validate(); err != nil {
		return err
	}
	if err := c.Simplifier.Validate(); err != nil {
		return err
	}
	if !(c.MinContourAreaPx >= 0) || math.IsInf(c.MinContourAreaPx, 0) {
		return fmt.Errorf("%w: min_contour_area_px %v must be >= 0", raster.ErrInvalidParameter, c.MinContourAreaPx)
	}
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if _, err := classify.PolicyByName(c.Policy, c.Classifier, c.Workers); err != nil {
		return err
	}
	if c.Mode != ModeUnion && c.Mode != ModePerInstance {
		return fmt.Errorf("%w: unknown mode %q (want %q or %q)", raster.ErrInvalidParameter, c.Mode, ModeUnion, ModePerInstance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d must be >= 0", raster.ErrInvalidParameter, c.Workers)
	}
	return c.ColorMask.Validate()
}

// Load reads a JSON config file. Fields omitted from the file keep their
// defaults, so partial configs are safe.
func Load(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, fmt.Errorf("config: file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to stat file: %w", err)
	}
	if info.Size() > maxFileSize {
		return Config{}, fmt.Errorf("config: file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to read file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to parse JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// FromEnv loads the file named by MASK_MCP_CONFIG, or returns the defaults
// when the variable is unset.
func FromEnv() (Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
