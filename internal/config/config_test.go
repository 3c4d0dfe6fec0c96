package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/mask-contour-mcp/internal/classify"
	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Cleaner.Open)
	assert.False(t, cfg.Cleaner.Close)
	assert.Equal(t, 1, cfg.Cleaner.Iterations)
	assert.Equal(t, 0.01, cfg.Simplifier.EpsFraction)
	assert.Equal(t, 256, cfg.Simplifier.MaxPoints)
	assert.Equal(t, 200.0, cfg.MinContourAreaPx)
	assert.Equal(t, classify.DefaultParams(), cfg.Classifier)
	assert.Equal(t, classify.PolicyHeuristic, cfg.Policy)
	assert.Equal(t, ModePerInstance, cfg.Mode)
	assert.Equal(t, uint8(128), cfg.MaskThreshold)
	assert.Equal(t, 28.0, cfg.ColorMask.Threshold)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "tuning.json", `{
		"mode": "union",
		"classifier": {"min_area_px": 500},
		"simplifier": {"max_points": 64}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeUnion, cfg.Mode)
	assert.Equal(t, 500, cfg.Classifier.MinAreaPx)
	assert.Equal(t, 0.45, cfg.Classifier.BgAreaFractionThreshold, "untouched nested field keeps its default")
	assert.True(t, cfg.Classifier.EnableHoleHeuristic)
	assert.Equal(t, 64, cfg.Simplifier.MaxPoints)
	assert.Equal(t, 0.01, cfg.Simplifier.EpsFraction)
	assert.Equal(t, 200.0, cfg.MinContourAreaPx)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
		invalid bool
	}{
		{
			name:    "wrong extension",
			path:    func(t *testing.T) string { return writeFile(t, "tuning.yaml", "{}") },
			wantErr: ".json extension",
		},
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.json") },
			wantErr: "failed to stat",
		},
		{
			name:    "too large",
			path:    func(t *testing.T) string { return writeFile(t, "big.json", strings.Repeat(" ", maxFileSize+1)) },
			wantErr: "too large",
		},
		{
			name:    "bad json",
			path:    func(t *testing.T) string { return writeFile(t, "bad.json", "{mode:") },
			wantErr: "failed to parse",
		},
		{
			name:    "invalid value",
			path:    func(t *testing.T) string { return writeFile(t, "neg.json", `{"cleaner": {"iterations": -1}}`) },
			invalid: true,
		},
		{
			name:    "unknown policy",
			path:    func(t *testing.T) string { return writeFile(t, "policy.json", `{"policy": "median"}`) },
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "config: "), err.Error())
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			if tt.invalid {
				assert.ErrorIs(t, err, raster.ErrInvalidParameter)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"mode", func(c *Config) { c.Mode = "both" }},
		{"policy", func(c *Config) { c.Policy = "" }},
		{"workers", func(c *Config) { c.Workers = -1 }},
		{"min contour area", func(c *Config) { c.MinContourAreaPx = -5 }},
		{"simplifier", func(c *Config) { c.Simplifier.MaxPoints = 1 }},
		{"classifier", func(c *Config) { c.Classifier.BorderBandPx = 0 }},
		{"color mask", func(c *Config) { c.ColorMask.Metric = "xyz" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), raster.ErrInvalidParameter)
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	t.Setenv(EnvConfigPath, writeFile(t, "env.json", `{"policy": "largest"}`))
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, classify.PolicyLargest, cfg.Policy)
}
