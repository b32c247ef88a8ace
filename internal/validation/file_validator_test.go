package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	v := NewFileValidator(nil, 1024)

	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr bool
	}{
		{"valid xlsx", "keepa-B00TEST123.xlsx", 500, false},
		{"uppercase extension", "EXPORT.XLSX", 500, false},
		{"csv rejected", "data.csv", 500, true},
		{"no extension", "data", 500, true},
		{"empty file", "keepa.xlsx", 0, true},
		{"over limit", "keepa.xlsx", 2048, true},
		{"at limit", "keepa.xlsx", 1024, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.file, tt.size)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUploadNoSizeLimit(t *testing.T) {
	v := NewFileValidator(nil, 0)
	assert.NoError(t, v.ValidateUpload("big.xlsx", 1<<40))
}

func TestValidateInputDirectory(t *testing.T) {
	v := NewFileValidator(nil, 0)
	dir := t.TempDir()

	assert.NoError(t, v.ValidateInputDirectory(dir, "keepa-*.xlsx"))
	assert.NoError(t, v.ValidateInputDirectory(dir, ""), "empty directory is fine")
	assert.Error(t, v.ValidateInputDirectory(filepath.Join(dir, "missing"), "*"))

	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, v.ValidateInputDirectory(file, "*"), "a file is not a directory")
}

func TestValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil, 0)
	dir := filepath.Join(t.TempDir(), "reports", "nested")

	require.NoError(t, v.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe is cleaned up")
}
