package dataprocessing

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"keepacli/internal/errors"
)

// SalePeriod is one labeled closed calendar interval in the sale catalog.
type SalePeriod struct {
	Start time.Time
	End   time.Time
	Label string
}

// Catalog is an ordered list of sale periods. Order is significant: when
// periods overlap, Classify resolves the conflict by catalog order, first
// match wins. Do not sort or dedupe a loaded catalog.
type Catalog []SalePeriod

// Classify maps a date to the label of the first catalog period whose
// inclusive [start, end] range contains it. A zero date or a date outside all
// periods yields ok=false.
func (c Catalog) Classify(date time.Time) (string, bool) {
	if date.IsZero() {
		return "", false
	}
	d := dateOnly(date)
	for _, p := range c {
		if !d.Before(dateOnly(p.Start)) && !d.After(dateOnly(p.End)) {
			return p.Label, true
		}
	}
	return "", false
}

// dateOnly truncates a timestamp to its calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// catalogEntry is the YAML shape of one sale period.
type catalogEntry struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Label string `yaml:"label"`
}

// LoadCatalog reads a sale-period catalog from a YAML file, preserving entry
// order. Entries use ISO-8601 dates:
//
//	- start: "2023-11-24"
//	  end: "2023-12-01"
//	  label: "ビッグセール"
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read sale period catalog", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses YAML catalog bytes.
func ParseCatalog(data []byte) (Catalog, error) {
	var entries []catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.NewConfigError("failed to parse sale period catalog", err)
	}

	catalog := make(Catalog, 0, len(entries))
	for i, e := range entries {
		start, err := time.Parse("2006-01-02", e.Start)
		if err != nil {
			return nil, errors.NewConfigError(
				fmt.Sprintf("catalog entry %d: invalid start date %q", i, e.Start), err)
		}
		end, err := time.Parse("2006-01-02", e.End)
		if err != nil {
			return nil, errors.NewConfigError(
				fmt.Sprintf("catalog entry %d: invalid end date %q", i, e.End), err)
		}
		if e.Label == "" {
			return nil, errors.NewConfigError(
				fmt.Sprintf("catalog entry %d: missing label", i), nil)
		}
		catalog = append(catalog, SalePeriod{Start: start, End: end, Label: e.Label})
	}
	return catalog, nil
}

// LoadCatalogOrEmpty loads a catalog and degrades to an empty one when the
// source is missing or malformed: every row then classifies to no label. The
// failure is logged once so runs keep working without period data.
func LoadCatalogOrEmpty(path string, logger *slog.Logger) Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	catalog, err := LoadCatalog(path)
	if err != nil {
		logger.Warn("sale period catalog unavailable, periods will not be labeled",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return Catalog{}
	}
	return catalog
}
