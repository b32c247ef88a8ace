package dataprocessing

import (
	"context"
	goerrors "errors"
	"io"
	"log/slog"
	"time"
)

// ErrNoData is returned when a run produces nothing: every input file failed
// or no files were given.
var ErrNoData = goerrors.New("no data produced: all input files were skipped")

// Source is one spreadsheet input, either a path on disk or an in-memory
// stream (an upload body). Sources live for the duration of one run.
type Source struct {
	Name   string
	Path   string
	Reader io.Reader
	Size   int64
}

// FileResult reports the outcome for one source. Err is set when the file was
// skipped; the run continues regardless.
type FileResult struct {
	Name string
	ASIN string
	Rows int
	Err  error
}

// Result is the outcome of one merge run. The merged table wholly replaces
// any previous run's output.
type Result struct {
	Merged     *Table
	DateColumn string
	Files      []FileResult
	Elapsed    time.Duration
}

// Skipped returns the results of files that failed.
func (r *Result) Skipped() []FileResult {
	var skipped []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			skipped = append(skipped, f)
		}
	}
	return skipped
}

// DistinctASINs counts distinct identifiers in the merged table.
func (r *Result) DistinctASINs() int {
	if r.Merged == nil {
		return 0
	}
	seen := make(map[string]struct{})
	for _, c := range r.Merged.ColumnValues(ColumnASIN) {
		if !c.IsEmpty() {
			seen[c.Text] = struct{}{}
		}
	}
	return len(seen)
}

// ProgressFunc receives cooperative progress signals during a run, once per
// completed file.
type ProgressFunc func(completed, total int)

// Processor runs the extract → enrich → merge pipeline over a set of
// sources, one file at a time, isolating failures per file.
type Processor struct {
	logger     *slog.Logger
	catalog    Catalog
	onProgress ProgressFunc
}

// NewProcessor creates a processor bound to a sale-period catalog.
func NewProcessor(logger *slog.Logger, catalog Catalog) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, catalog: catalog}
}

// OnProgress registers a progress callback for subsequent runs.
func (p *Processor) OnProgress(fn ProgressFunc) {
	p.onProgress = fn
}

// Process runs the pipeline over the given sources. Each source is extracted
// and enriched independently; a failure skips that file and is recorded in
// the result. Process fails only when nothing could be merged.
func (p *Processor) Process(ctx context.Context, sources []Source) (*Result, error) {
	start := time.Now()
	result := &Result{}
	var tables []*Table

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		asin, table, err := p.processOne(src)
		fr := FileResult{Name: src.Name, ASIN: asin, Err: err}
		if err != nil {
			p.logger.WarnContext(ctx, "skipping file",
				slog.String("file", src.Name),
				slog.String("error", err.Error()))
			filesProcessed.WithLabelValues("skipped").Inc()
		} else {
			fr.Rows = table.NumRows()
			tables = append(tables, table)
			filesProcessed.WithLabelValues("ok").Inc()
		}
		result.Files = append(result.Files, fr)

		if p.onProgress != nil {
			p.onProgress(i+1, len(sources))
		}
	}

	if len(tables) == 0 {
		mergeRuns.WithLabelValues("empty").Inc()
		return nil, ErrNoData
	}

	result.Merged = Merge(tables)
	result.DateColumn = mergedDateColumn(result.Merged)
	result.Elapsed = time.Since(start)

	mergeRuns.WithLabelValues("ok").Inc()
	rowsMerged.Add(float64(result.Merged.NumRows()))
	runDuration.Observe(result.Elapsed.Seconds())

	p.logger.InfoContext(ctx, "merge run complete",
		slog.Int("files_merged", len(tables)),
		slog.Int("files_skipped", len(result.Files)-len(tables)),
		slog.Int("rows", result.Merged.NumRows()),
		slog.Int("columns", len(result.Merged.Columns)),
		slog.Duration("elapsed", result.Elapsed))

	return result, nil
}

// processOne extracts and enriches a single source.
func (p *Processor) processOne(src Source) (string, *Table, error) {
	var asin string
	var table *Table
	var err error

	if src.Reader != nil {
		asin, table, err = ExtractReader(src.Reader)
	} else {
		asin, table, err = ExtractFile(src.Path)
	}
	if err != nil {
		return "", nil, err
	}

	Enrich(asin, table, p.catalog)
	return asin, table, nil
}

// mergedDateColumn picks the date column of the merged table: the first
// recognized name present, in priority order.
func mergedDateColumn(t *Table) string {
	if col, ok := findColumn(t, dateColumnNames); ok {
		return col
	}
	return ""
}
