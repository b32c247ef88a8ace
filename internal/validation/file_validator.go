package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileValidator validates merge inputs before the pipeline touches them.
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewFileValidator creates a validator. maxBytes bounds a single upload; 0
// disables the size check.
func NewFileValidator(logger *slog.Logger, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger, maxBytes: maxBytes}
}

// ValidateUpload checks one uploaded file's name and size. Only xlsx is
// accepted; the workbook itself is parsed later with per-file error
// isolation.
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return fmt.Errorf("%s: only .xlsx files are supported", name)
	}
	if size <= 0 {
		return fmt.Errorf("%s: file is empty", name)
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		return fmt.Errorf("%s: file exceeds limit of %d bytes", name, v.maxBytes)
	}
	return nil
}

// ValidateInputDirectory checks that a batch input directory exists and
// reports how many files match the pattern. No matches is not an error,
// just nothing to process.
func (v *FileValidator) ValidateInputDirectory(dir, pattern string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if pattern != "" {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to check for files: %w", err)
		}
		v.logger.Info("input directory validated",
			slog.String("directory", dir),
			slog.String("pattern", pattern),
			slog.Int("files_found", len(matches)))
	}
	return nil
}

// ValidateOutputDirectory ensures the output directory exists and is
// writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	os.Remove(probe)
	return nil
}
