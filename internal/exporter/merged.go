package exporter

import (
	"fmt"
	"io"
	"time"

	"keepacli/internal/dataprocessing"
)

// SummaryHeaders are the columns of the participation summary CSV, one row
// per (ASIN, sale label).
var SummaryHeaders = []string{
	"ASIN",
	"セール区分",
	"最新サブカテゴリ順位",
	"参加率(%)",
	"参考価格",
	"最安セール価格",
	"最高セール価格",
}

// MergedFileName returns the timestamped download name for a merged CSV.
func MergedFileName(now time.Time) string {
	return fmt.Sprintf("keepa_merged_%s.csv", now.Format("20060102_150405"))
}

// TableRecords flattens a table into CSV string records in column order.
func TableRecords(t *dataprocessing.Table) [][]string {
	records := make([][]string, 0, t.NumRows())
	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i := range t.Columns {
			if i < len(row) {
				record[i] = row[i].String()
			}
		}
		records = append(records, record)
	}
	return records
}

// SummaryRecords flattens summary records for CSV output. Undefined
// statistics become empty fields.
func SummaryRecords(summaries []dataprocessing.SummaryRecord) [][]string {
	records := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, []string{
			s.ASIN,
			s.Label,
			s.LatestRank.String(),
			fmt.Sprintf("%.1f", s.ParticipationRate),
			s.ReferencePrice.String(),
			s.MinSalePrice.String(),
			s.MaxSalePrice.String(),
		})
	}
	return records
}

// WriteMergedCSV streams the merged table as BOM-prefixed CSV.
func WriteMergedCSV(out io.Writer, t *dataprocessing.Table) error {
	return Write(out, t.Columns, TableRecords(t))
}

// WriteSummaryCSV streams the participation summary as BOM-prefixed CSV.
func WriteSummaryCSV(out io.Writer, summaries []dataprocessing.SummaryRecord) error {
	return Write(out, SummaryHeaders, SummaryRecords(summaries))
}
