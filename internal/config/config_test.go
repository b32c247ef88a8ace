package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves the test into an empty directory so Load never picks up a real
// config.yaml from the working tree.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "configs/sale_periods.yaml", cfg.Pipeline.CatalogFile)
	assert.Equal(t, 0.05, cfg.Pipeline.DiscountThreshold)
	assert.Equal(t, int64(128<<20), cfg.Pipeline.MaxUploadBytes)
	assert.Equal(t, 10, cfg.Pipeline.PreviewRows)
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9090
pipeline:
  discount_threshold: 0.10
  preview_rows: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.10, cfg.Pipeline.DiscountThreshold)
	assert.Equal(t, 25, cfg.Pipeline.PreviewRows)
	assert.Equal(t, "info", cfg.Logging.Level, "unset keys keep defaults")
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("server:\n  port: 9090\n"), 0o644))
	chdir(t, dir)

	t.Setenv("KEEPA_SERVER_PORT", "7070")
	t.Setenv("KEEPA_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "environment wins over YAML")
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"KEEPA_SERVER_PORT": "0"}},
		{"threshold too high", map[string]string{"KEEPA_PIPELINE_DISCOUNT_THRESHOLD": "1.5"}},
		{"negative upload limit", map[string]string{"KEEPA_PIPELINE_MAX_UPLOAD_BYTES": "-1"}},
		{"bad logging output", map[string]string{"KEEPA_LOGGING_OUTPUT": "syslog"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(":\n -"), 0o644))
	chdir(t, dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Paths.InputDir = filepath.Join(dir, "data")
	cfg.Paths.ReportsDir = filepath.Join(dir, "reports")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{cfg.Paths.InputDir, cfg.Paths.ReportsDir, cfg.Paths.LogsDir} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestMergedCSVPath(t *testing.T) {
	cfg := Default()
	cfg.Paths.ReportsDir = "reports"
	assert.Equal(t, filepath.Join("reports", "out.csv"), cfg.MergedCSVPath("out.csv"))
}
