package dataprocessing

import (
	"strings"
	"time"
)

// Derived column names added during enrichment.
const (
	ColumnASIN            = "ASIN"
	ColumnSalePeriod      = "セール区分"
	ColumnListPrice       = "参考価格"
	ColumnSalePrice       = "セール価格"
	ColumnSubcategoryRank = "サブカテゴリ順位"
)

// Bracket syntax of per-subcategory sales rank columns: rank[<category>].
const (
	rankColumnPrefix = "rank["
	rankColumnSuffix = "]"
)

// Legacy source columns come in two spellings depending on the export
// generation, so every concept maps to an ordered list of acceptable names
// checked in priority order. Adding a future spelling is a data change here,
// not a code change.
var (
	dateColumnNames        = []string{"日付", "Date"}
	amazonPriceColumnNames = []string{"Amazon価格(円)", "Amazon 価格(円)"}
	newPriceColumnNames    = []string{"新品価格(円)", "新品 価格(円)"}
	salePriceColumnNames   = []string{"セール価格(円)", "セール 価格(円)"}

	// legacyColumnNames are removed after derivation, superseded by the
	// derived price/rank columns. Only names actually present are removed.
	legacyColumnNames = [][]string{
		salePriceColumnNames,
		{"クーポン(円)", "クーポン (円)"},
		{"タイムセール(円)", "タイムセール (円)"},
		{"プライム価格(円)", "プライム 価格(円)"},
		{"FBA価格(円)", "FBA 価格(円)"},
		{"FBM価格(円)", "FBM 価格(円)"},
		amazonPriceColumnNames,
		newPriceColumnNames,
		{"販売数", "販売 数"},
		{"評価", "レビュー評価"},
		{"評価数", "レビュー数"},
		{"出品者数", "出品者 数"},
	}
)

// dateLayouts are tried in order when coercing the date column. Unparseable
// values become missing, never an error.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/1/2",
	"01-02-06",
	"1/2/06 15:04",
}

// findColumn returns the first of names present in the table, checked in
// priority order.
func findColumn(t *Table, names []string) (string, bool) {
	for _, name := range names {
		if t.HasColumn(name) {
			return name, true
		}
	}
	return "", false
}

// parseDateCell coerces a cell to a date. Already-coerced cells pass through.
func parseDateCell(c Cell) (time.Time, bool) {
	if d, ok := c.AsDate(); ok {
		return d, true
	}
	if c.Kind != KindText {
		return time.Time{}, false
	}
	s := strings.TrimSpace(c.Text)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// Enrich augments one extracted table in place:
//
//  1. the ASIN becomes the first column, repeated on every row
//  2. the date column (日付 or Date) is coerced to dates and a sale-period
//     label column is inserted right after it, classified via the catalog
//  3. 参考価格 = element-wise max of the Amazon and new-item price columns
//     (either alone when only one exists)
//  4. セール価格 is carried over from its legacy source column
//  5. サブカテゴリ順位 = row-wise minimum across all rank[<category>] columns
//  6. superseded legacy columns are dropped
//
// Every step is independently skipped when its source columns are absent; a
// table without prices or dates still merges fine.
func Enrich(asin string, t *Table, catalog Catalog) {
	insertASINColumn(asin, t)
	coerceDatesAndLabel(t, catalog)
	deriveListPrice(t)
	deriveSalePrice(t)
	deriveSubcategoryRank(t)
	dropLegacyColumns(t)
}

func insertASINColumn(asin string, t *Table) {
	values := make([]Cell, t.NumRows())
	for i := range values {
		values[i] = TextCell(asin)
	}
	t.InsertColumn(0, ColumnASIN, values)
}

func coerceDatesAndLabel(t *Table, catalog Catalog) {
	dateCol, ok := findColumn(t, dateColumnNames)
	if !ok {
		return
	}
	idx := t.ColumnIndex(dateCol)

	labels := make([]Cell, t.NumRows())
	for i := range t.Rows {
		cell := t.Rows[i][idx]
		d, ok := parseDateCell(cell)
		if !ok {
			t.SetCell(i, idx, Cell{})
			continue
		}
		t.SetCell(i, idx, DateCell(d))
		if label, ok := catalog.Classify(d); ok {
			labels[i] = TextCell(label)
		}
	}
	t.InsertColumn(idx+1, ColumnSalePeriod, labels)
}

func deriveListPrice(t *Table) {
	amazonCol, hasAmazon := findColumn(t, amazonPriceColumnNames)
	newCol, hasNew := findColumn(t, newPriceColumnNames)
	if !hasAmazon && !hasNew {
		return
	}

	values := make([]Cell, t.NumRows())
	for i := range t.Rows {
		var best float64
		var found bool
		if hasAmazon {
			if v, ok := t.Cell(i, amazonCol).AsNumber(); ok {
				best, found = v, true
			}
		}
		if hasNew {
			if v, ok := t.Cell(i, newCol).AsNumber(); ok && (!found || v > best) {
				best, found = v, true
			}
		}
		if found {
			values[i] = NumberCell(best)
		}
	}
	t.AppendColumn(ColumnListPrice, values)
}

func deriveSalePrice(t *Table) {
	col, ok := findColumn(t, salePriceColumnNames)
	if !ok {
		return
	}
	values := make([]Cell, t.NumRows())
	for i := range t.Rows {
		if v, ok := t.Cell(i, col).AsNumber(); ok {
			values[i] = NumberCell(v)
		}
	}
	t.AppendColumn(ColumnSalePrice, values)
}

// RankColumns returns the names of all rank[<category>] columns in table
// order.
func RankColumns(t *Table) []string {
	var cols []string
	for _, name := range t.Columns {
		if strings.HasPrefix(name, rankColumnPrefix) && strings.HasSuffix(name, rankColumnSuffix) {
			cols = append(cols, name)
		}
	}
	return cols
}

// RankCategory strips the bracket syntax from a rank column name.
func RankCategory(column string) string {
	return strings.TrimSuffix(strings.TrimPrefix(column, rankColumnPrefix), rankColumnSuffix)
}

func deriveSubcategoryRank(t *Table) {
	rankCols := RankColumns(t)
	if len(rankCols) == 0 {
		return
	}

	values := make([]Cell, t.NumRows())
	for i := range t.Rows {
		var best float64
		var found bool
		for _, col := range rankCols {
			if v, ok := t.Cell(i, col).AsNumber(); ok && (!found || v < best) {
				best, found = v, true
			}
		}
		if found {
			values[i] = NumberCell(best)
		}
	}
	t.AppendColumn(ColumnSubcategoryRank, values)
}

func dropLegacyColumns(t *Table) {
	for _, variants := range legacyColumnNames {
		for _, name := range variants {
			t.RemoveColumn(name)
		}
	}
}
