package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// summaryTable builds a merged-and-enriched table directly, with the derived
// columns the aggregator reads.
func summaryTable() *Table {
	return NewTable(ColumnASIN, "日付", ColumnSalePeriod, ColumnListPrice, ColumnSalePrice, ColumnSubcategoryRank)
}

func addSummaryRow(t *Table, asin string, d Cell, label string, list, sale, rank Cell) {
	t.AppendRow([]Cell{TextCell(asin), d, TextCell(label), list, sale, rank})
}

// Two products over one big-sale window: X1 sold at a 20% discount on every
// labeled row, X2 has no labeled rows at all.
func TestAggregateEndToEnd(t *testing.T) {
	tbl := summaryTable()
	addSummaryRow(tbl, "X1", DateCell(date(2023, 11, 25)), "ビッグセール",
		NumberCell(100), NumberCell(80), NumberCell(300))
	addSummaryRow(tbl, "X2", DateCell(date(2023, 11, 25)), "",
		NumberCell(100), NumberCell(100), NumberCell(500))

	agg := NewAggregator(nil, AggregatorConfig{})
	records := agg.Aggregate(tbl)

	require.Len(t, records, 1, "unlabeled rows produce no record")
	rec := records[0]
	assert.Equal(t, "X1", rec.ASIN)
	assert.Equal(t, "ビッグセール", rec.Label)
	assert.Equal(t, 100.0, rec.ParticipationRate)

	ref, ok := rec.ReferencePrice.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 100.0, ref)

	min, ok := rec.MinSalePrice.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 80.0, min)
	max, ok := rec.MaxSalePrice.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 80.0, max)

	rank, ok := rec.LatestRank.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 300.0, rank)
}

func TestAggregateParticipationThreshold(t *testing.T) {
	tbl := summaryTable()
	// Exactly 5% discount participates; 4% does not.
	addSummaryRow(tbl, "A1", DateCell(date(2023, 11, 24)), "ビッグセール",
		NumberCell(100), NumberCell(95), Cell{})
	addSummaryRow(tbl, "A1", DateCell(date(2023, 11, 25)), "ビッグセール",
		NumberCell(100), NumberCell(96), Cell{})
	// Missing sale price never participates.
	addSummaryRow(tbl, "A1", DateCell(date(2023, 11, 26)), "ビッグセール",
		NumberCell(100), Cell{}, Cell{})

	records := NewAggregator(nil, AggregatorConfig{}).Aggregate(tbl)
	require.Len(t, records, 1)

	rec := records[0]
	assert.InDelta(t, 100.0/3, rec.ParticipationRate, 0.001)

	min, ok := rec.MinSalePrice.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 95.0, min, "min/max computed over participating rows only")
	max, _ := rec.MaxSalePrice.AsNumber()
	assert.Equal(t, 95.0, max)
}

func TestAggregateZeroParticipation(t *testing.T) {
	tbl := summaryTable()
	addSummaryRow(tbl, "Z1", DateCell(date(2024, 6, 28)), "スマイルSALE",
		NumberCell(200), NumberCell(199), Cell{})
	addSummaryRow(tbl, "Z1", DateCell(date(2024, 6, 29)), "スマイルSALE",
		NumberCell(200), NumberCell(200), Cell{})

	records := NewAggregator(nil, AggregatorConfig{}).Aggregate(tbl)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, 0.0, rec.ParticipationRate)
	assert.True(t, rec.MinSalePrice.IsEmpty(), "no participating rows, no sale bounds")
	assert.True(t, rec.MaxSalePrice.IsEmpty())

	// Reference price falls back to the whole label subset.
	ref, ok := rec.ReferencePrice.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 200.0, ref)
}

func TestAggregateZeroListPriceExcluded(t *testing.T) {
	tbl := summaryTable()
	addSummaryRow(tbl, "F1", DateCell(date(2023, 11, 24)), "ビッグセール",
		NumberCell(0), NumberCell(0), Cell{})

	records := NewAggregator(nil, AggregatorConfig{}).Aggregate(tbl)
	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].ParticipationRate,
		"zero list price cannot participate, no division by zero")
}

func TestAggregateRecordOrder(t *testing.T) {
	tbl := summaryTable()
	addSummaryRow(tbl, "B2", DateCell(date(2024, 6, 28)), "スマイルSALE",
		NumberCell(100), NumberCell(90), Cell{})
	addSummaryRow(tbl, "B2", DateCell(date(2023, 11, 24)), "ビッグセール",
		NumberCell(100), NumberCell(90), Cell{})
	addSummaryRow(tbl, "A1", DateCell(date(2023, 11, 22)), "ビッグセール先行セール",
		NumberCell(100), NumberCell(90), Cell{})

	records := NewAggregator(nil, AggregatorConfig{}).Aggregate(tbl)
	require.Len(t, records, 3)

	assert.Equal(t, "A1", records[0].ASIN)
	assert.Equal(t, "ビッグセール先行セール", records[0].Label)
	assert.Equal(t, "B2", records[1].ASIN)
	assert.Equal(t, "ビッグセール", records[1].Label, "labels follow canonical order, not row order")
	assert.Equal(t, "B2", records[2].ASIN)
	assert.Equal(t, "スマイルSALE", records[2].Label)
}

func TestAggregateLatestRankSpansLabels(t *testing.T) {
	tbl := summaryTable()
	// The newest row is unlabeled; its rank still wins for the ASIN.
	addSummaryRow(tbl, "R1", DateCell(date(2023, 11, 24)), "ビッグセール",
		NumberCell(100), NumberCell(90), NumberCell(400))
	addSummaryRow(tbl, "R1", DateCell(date(2024, 3, 1)), "",
		NumberCell(100), NumberCell(100), NumberCell(150))

	records := NewAggregator(nil, AggregatorConfig{}).Aggregate(tbl)
	require.Len(t, records, 1)

	rank, ok := records[0].LatestRank.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 150.0, rank)
}

func TestAggregateCustomThreshold(t *testing.T) {
	tbl := summaryTable()
	addSummaryRow(tbl, "C1", DateCell(date(2023, 11, 24)), "ビッグセール",
		NumberCell(100), NumberCell(92), Cell{})

	strict := NewAggregator(nil, AggregatorConfig{Threshold: 0.10}).Aggregate(tbl)
	require.Len(t, strict, 1)
	assert.Equal(t, 0.0, strict[0].ParticipationRate)

	lenient := NewAggregator(nil, AggregatorConfig{Threshold: 0.05}).Aggregate(tbl)
	require.Len(t, lenient, 1)
	assert.Equal(t, 100.0, lenient[0].ParticipationRate)
}

func TestModeOrMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		wantOK bool
	}{
		{"empty", nil, 0, false},
		{"single value", []float64{100}, 100, true},
		{"clear mode", []float64{100, 120, 100}, 100, true},
		{"tied modes pick smallest", []float64{120, 100, 120, 100}, 100, true},
		{"no repeats falls back to mean", []float64{100, 200, 300}, 200, true},
		{"all same", []float64{50, 50, 50}, 50, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := modeOrMean(tt.values)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
