// Command merger batch-merges Keepa xlsx exports from a directory into a
// single CSV plus a sale-participation summary CSV.
//
// Usage:
//
//	merger -in data -catalog configs/sale_periods.yaml -out reports \
//	       -from 2023-11-01 -to 2023-12-31
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"keepacli/internal/dataprocessing"
	"keepacli/internal/exporter"
	"keepacli/internal/files"
	"keepacli/internal/validation"
)

func main() {
	var (
		inDir    = flag.String("in", "data", "directory containing keepa xlsx exports")
		pattern  = flag.String("glob", "keepa-*.xlsx", "file name pattern to merge")
		catalog  = flag.String("catalog", "configs/sale_periods.yaml", "sale period catalog YAML")
		outDir   = flag.String("out", "reports", "output directory for CSV files")
		fromStr  = flag.String("from", "", "inclusive start date filter (YYYY-MM-DD)")
		toStr    = flag.String("to", "", "inclusive end date filter (YYYY-MM-DD)")
		category = flag.String("category", "", "restrict rows to this attributed subcategory")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger, *inDir, *pattern, *catalog, *outDir, *fromStr, *toStr, *category); err != nil {
		logger.Error("merge failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, inDir, pattern, catalogPath, outDir, fromStr, toStr, category string) error {
	ctx := context.Background()

	from, to, err := parseRange(fromStr, toStr)
	if err != nil {
		return err
	}

	validator := validation.NewFileValidator(logger, 0)
	if err := validator.ValidateInputDirectory(inDir, pattern); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(outDir); err != nil {
		return err
	}

	exports, err := files.NewDiscovery(".").FindExports(inDir, pattern)
	if err != nil {
		return err
	}
	if len(exports) == 0 {
		return fmt.Errorf("no files matching %s in %s", pattern, inDir)
	}

	sources := make([]dataprocessing.Source, 0, len(exports))
	for _, e := range exports {
		sources = append(sources, dataprocessing.Source{Name: e.Name, Path: e.Path, Size: e.Size})
	}

	for _, info := range inventory(sources) {
		logger.Info("found file",
			slog.String("name", info.Name),
			slog.String("asin", info.ASIN),
			slog.Int64("bytes", info.Size))
	}

	catalog := dataprocessing.LoadCatalogOrEmpty(catalogPath, logger)

	processor := dataprocessing.NewProcessor(logger, catalog)
	processor.OnProgress(func(completed, total int) {
		fmt.Fprintf(os.Stderr, "\rprocessing %d/%d", completed, total)
		if completed == total {
			fmt.Fprintln(os.Stderr)
		}
	})

	result, err := processor.Process(ctx, sources)
	if err != nil {
		return err
	}
	for _, f := range result.Skipped() {
		fmt.Fprintf(os.Stderr, "warning: %s skipped: %v\n", f.Name, f.Err)
	}

	table := result.Merged
	if !from.IsZero() || !to.IsZero() {
		if result.DateColumn == "" {
			return fmt.Errorf("merged data has no date column to filter on")
		}
		table, err = dataprocessing.FilterDateRange(table, result.DateColumn, from, to)
		if err != nil {
			return err
		}
	}
	if category != "" {
		table = dataprocessing.FilterCategory(table, category)
	}

	aggregator := dataprocessing.NewAggregator(logger, dataprocessing.AggregatorConfig{
		DateColumn: result.DateColumn,
	})
	summary := aggregator.Aggregate(table)

	writer := exporter.NewCSVWriter(outDir, logger)
	mergedName := exporter.MergedFileName(time.Now())
	if err := writer.WriteFile(mergedName, table.Columns, exporter.TableRecords(table)); err != nil {
		return err
	}
	if err := writer.WriteFile("keepa_summary.csv", exporter.SummaryHeaders, exporter.SummaryRecords(summary)); err != nil {
		return err
	}

	fmt.Printf("merged %d files, %d rows, %d ASINs -> %s\n",
		len(result.Files)-len(result.Skipped()), table.NumRows(), result.DistinctASINs(),
		filepath.Join(outDir, mergedName))
	return nil
}

func inventory(sources []dataprocessing.Source) []dataprocessing.FileInfo {
	infos := make([]dataprocessing.FileInfo, 0, len(sources))
	for _, src := range sources {
		infos = append(infos, dataprocessing.Inspect(src))
	}
	return infos
}

func parseRange(fromStr, toStr string) (from, to time.Time, err error) {
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid -from date %q: %w", fromStr, err)
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid -to date %q: %w", toStr, err)
		}
	}
	if !from.IsZero() && to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return from, to, nil
}
