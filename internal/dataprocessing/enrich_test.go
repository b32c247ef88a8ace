package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrichFixture() *Table {
	tbl := NewTable("日付", "Amazon価格(円)", "新品価格(円)", "セール価格(円)", "rank[Toys]", "rank[Games]", "評価")
	tbl.AppendRow([]Cell{
		TextCell("2023-11-25"), TextCell("1,980"), TextCell("2100"), TextCell("1780"),
		TextCell("500"), TextCell("200"), TextCell("4.5"),
	})
	tbl.AppendRow([]Cell{
		TextCell("2024-01-10"), TextCell("2000"), TextCell(""), TextCell(""),
		TextCell("450"), TextCell(""), TextCell("4.5"),
	})
	tbl.AppendRow([]Cell{
		TextCell("not a date"), TextCell(""), TextCell(""), TextCell(""),
		TextCell(""), TextCell(""), TextCell(""),
	})
	return tbl
}

func TestEnrich(t *testing.T) {
	tbl := enrichFixture()
	Enrich("B00TEST123", tbl, testCatalog())

	t.Run("asin is first column on every row", func(t *testing.T) {
		assert.Equal(t, ColumnASIN, tbl.Columns[0])
		for i := 0; i < tbl.NumRows(); i++ {
			assert.Equal(t, "B00TEST123", tbl.Cell(i, ColumnASIN).Text)
		}
	})

	t.Run("dates coerced and labeled after date column", func(t *testing.T) {
		dateIdx := tbl.ColumnIndex("日付")
		require.GreaterOrEqual(t, dateIdx, 0)
		assert.Equal(t, ColumnSalePeriod, tbl.Columns[dateIdx+1])

		d, ok := tbl.Cell(0, "日付").AsDate()
		require.True(t, ok)
		assert.Equal(t, date(2023, 11, 25), d)
		assert.Equal(t, "ビッグセール", tbl.Cell(0, ColumnSalePeriod).Text)

		assert.True(t, tbl.Cell(1, ColumnSalePeriod).IsEmpty(), "date outside all periods")
		assert.True(t, tbl.Cell(2, "日付").IsEmpty(), "unparseable date becomes missing")
		assert.True(t, tbl.Cell(2, ColumnSalePeriod).IsEmpty())
	})

	t.Run("list price is max of amazon and new prices", func(t *testing.T) {
		v, ok := tbl.Cell(0, ColumnListPrice).AsNumber()
		require.True(t, ok)
		assert.Equal(t, 2100.0, v, "new price beats amazon price")

		v, ok = tbl.Cell(1, ColumnListPrice).AsNumber()
		require.True(t, ok)
		assert.Equal(t, 2000.0, v, "amazon price alone when new price missing")

		assert.True(t, tbl.Cell(2, ColumnListPrice).IsEmpty())
	})

	t.Run("sale price carried over", func(t *testing.T) {
		v, ok := tbl.Cell(0, ColumnSalePrice).AsNumber()
		require.True(t, ok)
		assert.Equal(t, 1780.0, v)
		assert.True(t, tbl.Cell(1, ColumnSalePrice).IsEmpty())
	})

	t.Run("subcategory rank is row minimum", func(t *testing.T) {
		v, ok := tbl.Cell(0, ColumnSubcategoryRank).AsNumber()
		require.True(t, ok)
		assert.Equal(t, 200.0, v)

		v, ok = tbl.Cell(1, ColumnSubcategoryRank).AsNumber()
		require.True(t, ok)
		assert.Equal(t, 450.0, v, "single rank value stands alone")
	})

	t.Run("legacy columns dropped, derived and rank columns kept", func(t *testing.T) {
		for _, gone := range []string{"Amazon価格(円)", "新品価格(円)", "セール価格(円)", "評価"} {
			assert.False(t, tbl.HasColumn(gone), "column %s should be dropped", gone)
		}
		for _, kept := range []string{ColumnListPrice, ColumnSalePrice, ColumnSubcategoryRank, "rank[Toys]", "rank[Games]"} {
			assert.True(t, tbl.HasColumn(kept), "column %s should survive", kept)
		}
	})
}

func TestEnrichAlternateSpellings(t *testing.T) {
	tbl := NewTable("Date", "Amazon 価格(円)", "新品 価格(円)", "FBA 価格(円)")
	tbl.AppendRow([]Cell{TextCell("2024/06/28"), TextCell("980"), TextCell("950"), TextCell("970")})

	Enrich("B00ALT", tbl, testCatalog())

	d, ok := tbl.Cell(0, "Date").AsDate()
	require.True(t, ok)
	assert.Equal(t, date(2024, 6, 28), d)
	assert.Equal(t, "スマイルSALE", tbl.Cell(0, ColumnSalePeriod).Text)

	v, ok := tbl.Cell(0, ColumnListPrice).AsNumber()
	require.True(t, ok)
	assert.Equal(t, 980.0, v)

	assert.False(t, tbl.HasColumn("Amazon 価格(円)"))
	assert.False(t, tbl.HasColumn("新品 価格(円)"))
	assert.False(t, tbl.HasColumn("FBA 価格(円)"))
}

func TestEnrichMissingSourceColumns(t *testing.T) {
	tbl := NewTable("something")
	tbl.AppendRow([]Cell{TextCell("x")})

	Enrich("B00BARE", tbl, testCatalog())

	assert.Equal(t, []string{ColumnASIN, "something"}, tbl.Columns,
		"no date, price, or rank columns means only the ASIN is added")
	assert.Equal(t, "B00BARE", tbl.Cell(0, ColumnASIN).Text)
}

func TestEnrichEmptyTable(t *testing.T) {
	tbl := NewTable("日付", "Amazon価格(円)")
	Enrich("B00EMPTY", tbl, testCatalog())

	assert.True(t, tbl.HasColumn(ColumnASIN))
	assert.Equal(t, 0, tbl.NumRows())
}

func TestRankColumns(t *testing.T) {
	tbl := NewTable("ASIN", "rank[Toys]", "日付", "rank[Video Games]", "ranking")
	assert.Equal(t, []string{"rank[Toys]", "rank[Video Games]"}, RankColumns(tbl))
	assert.Equal(t, "Video Games", RankCategory("rank[Video Games]"))
}
