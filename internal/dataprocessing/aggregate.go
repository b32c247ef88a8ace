package dataprocessing

import (
	"log/slog"
	"sort"
	"time"
)

// DefaultParticipationThreshold is the minimum discount ratio
// (list − sale) / list for a row to count as sale participation.
const DefaultParticipationThreshold = 0.05

// CanonicalLabels are the sale labels summarized per ASIN, in output order:
// the two big-sale variants and the recurring monthly sale.
var CanonicalLabels = []string{
	"ビッグセール",
	"ビッグセール先行セール",
	"スマイルSALE",
}

// SummaryRecord is one aggregation result per (ASIN, sale label). Optional
// fields are cells so an undefined statistic stays an empty CSV field.
type SummaryRecord struct {
	ASIN              string
	Label             string
	LatestRank        Cell
	ParticipationRate float64
	ReferencePrice    Cell
	MinSalePrice      Cell
	MaxSalePrice      Cell
}

// AggregatorConfig names the columns the aggregator reads and the
// participation threshold. Zero fields fall back to the derived column names
// and the default threshold.
type AggregatorConfig struct {
	IdentifierColumn string
	LabelColumn      string
	DateColumn       string
	ListPriceColumn  string
	SalePriceColumn  string
	RankColumn       string
	Labels           []string
	Threshold        float64
}

// DefaultAggregatorConfig returns the configuration matching the enricher's
// derived columns.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		IdentifierColumn: ColumnASIN,
		LabelColumn:      ColumnSalePeriod,
		DateColumn:       dateColumnNames[0],
		ListPriceColumn:  ColumnListPrice,
		SalePriceColumn:  ColumnSalePrice,
		RankColumn:       ColumnSubcategoryRank,
		Labels:           CanonicalLabels,
		Threshold:        DefaultParticipationThreshold,
	}
}

// Aggregator computes sale-participation statistics from a merged table.
type Aggregator struct {
	logger *slog.Logger
	cfg    AggregatorConfig
}

// NewAggregator creates an aggregator, filling config defaults.
func NewAggregator(logger *slog.Logger, cfg AggregatorConfig) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultAggregatorConfig()
	if cfg.IdentifierColumn == "" {
		cfg.IdentifierColumn = def.IdentifierColumn
	}
	if cfg.LabelColumn == "" {
		cfg.LabelColumn = def.LabelColumn
	}
	if cfg.DateColumn == "" {
		cfg.DateColumn = def.DateColumn
	}
	if cfg.ListPriceColumn == "" {
		cfg.ListPriceColumn = def.ListPriceColumn
	}
	if cfg.SalePriceColumn == "" {
		cfg.SalePriceColumn = def.SalePriceColumn
	}
	if cfg.RankColumn == "" {
		cfg.RankColumn = def.RankColumn
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = def.Labels
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	return &Aggregator{logger: logger, cfg: cfg}
}

// Aggregate produces one SummaryRecord per (ASIN, canonical label) pair that
// has at least one row. Records are ordered by ASIN, then by the configured
// label order.
func (a *Aggregator) Aggregate(t *Table) []SummaryRecord {
	byASIN := a.groupRowsByASIN(t)

	asins := make([]string, 0, len(byASIN))
	for asin := range byASIN {
		asins = append(asins, asin)
	}
	sort.Strings(asins)

	var records []SummaryRecord
	for _, asin := range asins {
		rows := byASIN[asin]
		latestRank := a.latestRank(t, rows)

		for _, label := range a.cfg.Labels {
			subset := a.rowsWithLabel(t, rows, label)
			if len(subset) == 0 {
				continue
			}
			records = append(records, a.summarize(t, asin, label, latestRank, subset))
		}
	}

	a.logger.Debug("aggregated sale participation",
		slog.Int("asin_count", len(asins)),
		slog.Int("record_count", len(records)))
	return records
}

// groupRowsByASIN maps each ASIN to its row indices in table order.
func (a *Aggregator) groupRowsByASIN(t *Table) map[string][]int {
	byASIN := make(map[string][]int)
	for i := range t.Rows {
		asin := t.Cell(i, a.cfg.IdentifierColumn)
		if asin.IsEmpty() {
			continue
		}
		byASIN[asin.Text] = append(byASIN[asin.Text], i)
	}
	return byASIN
}

// latestRank returns the subcategory rank from the row with the maximum
// date, across all labels. Rows without a date do not compete.
func (a *Aggregator) latestRank(t *Table, rows []int) Cell {
	var best time.Time
	var rank Cell
	var found bool
	for _, i := range rows {
		d, ok := t.Cell(i, a.cfg.DateColumn).AsDate()
		if !ok {
			continue
		}
		if !found || d.After(best) {
			best = d
			rank = t.Cell(i, a.cfg.RankColumn)
			found = true
		}
	}
	return rank
}

func (a *Aggregator) rowsWithLabel(t *Table, rows []int, label string) []int {
	var subset []int
	for _, i := range rows {
		c := t.Cell(i, a.cfg.LabelColumn)
		if c.Kind == KindText && c.Text == label {
			subset = append(subset, i)
		}
	}
	return subset
}

// summarize computes the statistics for one (ASIN, label) subset. The subset
// is guaranteed non-empty by the caller.
func (a *Aggregator) summarize(t *Table, asin, label string, latestRank Cell, subset []int) SummaryRecord {
	var participating []int
	for _, i := range subset {
		list, okList := t.Cell(i, a.cfg.ListPriceColumn).AsNumber()
		sale, okSale := t.Cell(i, a.cfg.SalePriceColumn).AsNumber()
		if !okList || !okSale || list <= 0 {
			continue
		}
		if (list-sale)/list >= a.cfg.Threshold {
			participating = append(participating, i)
		}
	}

	rec := SummaryRecord{
		ASIN:              asin,
		Label:             label,
		LatestRank:        latestRank,
		ParticipationRate: 100 * float64(len(participating)) / float64(len(subset)),
	}

	// Reference price: mode of the list price among participating rows,
	// falling back to their mean, and to the same computation over the whole
	// subset when nothing participated.
	refRows := participating
	if len(refRows) == 0 {
		refRows = subset
	}
	if ref, ok := modeOrMean(a.columnNumbers(t, a.cfg.ListPriceColumn, refRows)); ok {
		rec.ReferencePrice = NumberCell(ref)
	}

	if len(participating) > 0 {
		sales := a.columnNumbers(t, a.cfg.SalePriceColumn, participating)
		if len(sales) > 0 {
			min, max := sales[0], sales[0]
			for _, v := range sales[1:] {
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
			rec.MinSalePrice = NumberCell(min)
			rec.MaxSalePrice = NumberCell(max)
		}
	}
	return rec
}

// columnNumbers collects the numeric values of a column over the given rows,
// skipping missing cells.
func (a *Aggregator) columnNumbers(t *Table, column string, rows []int) []float64 {
	var values []float64
	for _, i := range rows {
		if v, ok := t.Cell(i, column).AsNumber(); ok {
			values = append(values, v)
		}
	}
	return values
}

// modeOrMean returns the statistical mode of values, or their arithmetic mean
// when no mode exists. The mode is undefined when no value occurs more than
// once and the series holds more than one distinct value. Tied modes resolve
// to the numerically smallest value so output is deterministic.
func modeOrMean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	freq := make(map[float64]int, len(values))
	for _, v := range values {
		freq[v]++
	}

	bestCount := 0
	var best float64
	for v, n := range freq {
		if n > bestCount || (n == bestCount && v < best) {
			bestCount = n
			best = v
		}
	}

	if bestCount == 1 && len(freq) > 1 {
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), true
	}
	return best, true
}
