package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"keepacli/internal/config"
	"keepacli/internal/dataprocessing"
	"keepacli/internal/errors"
	"keepacli/internal/exporter"
)

// MergeService runs the merge pipeline and holds the most recent run's
// output. A new run wholly replaces the previous one; there is no partial
// update.
type MergeService struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog dataprocessing.Catalog

	mu   sync.RWMutex
	last *runState
}

// runState is one completed run: the merged table, its date-filtered view,
// and the aggregated summary.
type runState struct {
	id       string
	result   *dataprocessing.Result
	filtered *dataprocessing.Table
	summary  []dataprocessing.SummaryRecord
	ranAt    time.Time
}

// RunReport is the caller-facing outcome of a merge run.
type RunReport struct {
	RunID        string    `json:"run_id"`
	FilesMerged  int       `json:"files_merged"`
	FilesSkipped int       `json:"files_skipped"`
	Warnings     []string  `json:"warnings,omitempty"`
	TotalRows    int       `json:"total_rows"`
	FilteredRows int       `json:"filtered_rows"`
	ASINCount    int       `json:"asin_count"`
	ColumnCount  int       `json:"column_count"`
	MinDate      string    `json:"min_date,omitempty"`
	MaxDate      string    `json:"max_date,omitempty"`
	RanAt        time.Time `json:"ran_at"`
}

// NewMergeService creates the merge service with its sale-period catalog.
func NewMergeService(cfg *config.Config, catalog dataprocessing.Catalog, logger *slog.Logger) *MergeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergeService{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "merge_service")),
		catalog: catalog,
	}
}

// Inventory inspects sources without running the pipeline, for display
// before a merge.
func (s *MergeService) Inventory(sources []dataprocessing.Source) []dataprocessing.FileInfo {
	infos := make([]dataprocessing.FileInfo, 0, len(sources))
	for _, src := range sources {
		infos = append(infos, dataprocessing.Inspect(src))
	}
	return infos
}

// Run executes the pipeline over sources and stores the result, replacing
// any previous run. A non-zero from/to pair restricts rows to that inclusive
// date range before aggregation; from after to is a validation error and the
// run is not stored.
func (s *MergeService) Run(ctx context.Context, sources []dataprocessing.Source, from, to time.Time, onProgress dataprocessing.ProgressFunc) (*RunReport, error) {
	processor := dataprocessing.NewProcessor(s.logger, s.catalog)
	if onProgress != nil {
		processor.OnProgress(onProgress)
	}

	result, err := processor.Process(ctx, sources)
	if err != nil {
		return nil, err
	}

	filtered := result.Merged
	if !from.IsZero() || !to.IsZero() {
		if result.DateColumn == "" {
			return nil, errors.NewValidationError("merged data has no date column to filter on", nil)
		}
		filtered, err = dataprocessing.FilterDateRange(result.Merged, result.DateColumn, from, to)
		if err != nil {
			return nil, err
		}
	}

	aggregator := dataprocessing.NewAggregator(s.logger, dataprocessing.AggregatorConfig{
		DateColumn: result.DateColumn,
		Threshold:  s.cfg.Pipeline.DiscountThreshold,
	})
	summary := aggregator.Aggregate(filtered)

	state := &runState{
		id:       uuid.NewString(),
		result:   result,
		filtered: filtered,
		summary:  summary,
		ranAt:    time.Now(),
	}

	s.mu.Lock()
	s.last = state
	s.mu.Unlock()

	return s.report(state), nil
}

// Report returns the stored run's report.
func (s *MergeService) Report() (*RunReport, error) {
	state, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.report(state), nil
}

// Summary returns the stored run's participation summary records.
func (s *MergeService) Summary() ([]dataprocessing.SummaryRecord, error) {
	state, err := s.current()
	if err != nil {
		return nil, err
	}
	return state.summary, nil
}

// Preview returns the first n rows of the filtered merged table as ordered
// string records, plus the column names.
func (s *MergeService) Preview(n int) ([]string, [][]string, error) {
	state, err := s.current()
	if err != nil {
		return nil, nil, err
	}
	records := exporter.TableRecords(state.filtered)
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	return state.filtered.Columns, records, nil
}

// WriteMergedCSV streams the filtered merged table as BOM CSV.
func (s *MergeService) WriteMergedCSV(w io.Writer) error {
	state, err := s.current()
	if err != nil {
		return err
	}
	return exporter.WriteMergedCSV(w, state.filtered)
}

// WriteSummaryCSV streams the participation summary as BOM CSV.
func (s *MergeService) WriteSummaryCSV(w io.Writer) error {
	state, err := s.current()
	if err != nil {
		return err
	}
	return exporter.WriteSummaryCSV(w, state.summary)
}

func (s *MergeService) current() (*runState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, errors.NewNotFoundError("merged dataset")
	}
	return s.last, nil
}

func (s *MergeService) report(state *runState) *RunReport {
	report := &RunReport{
		RunID:        state.id,
		TotalRows:    state.result.Merged.NumRows(),
		FilteredRows: state.filtered.NumRows(),
		ASINCount:    state.result.DistinctASINs(),
		ColumnCount:  len(state.result.Merged.Columns),
		RanAt:        state.ranAt,
	}
	for _, f := range state.result.Files {
		if f.Err != nil {
			report.FilesSkipped++
			report.Warnings = append(report.Warnings, f.Name+": "+f.Err.Error())
		} else {
			report.FilesMerged++
		}
	}
	if min, max, ok := dataprocessing.DateBounds(state.result.Merged, state.result.DateColumn); ok {
		report.MinDate = min.Format("2006-01-02")
		report.MaxDate = max.Format("2006-01-02")
	}
	return report
}
