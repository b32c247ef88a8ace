package dataprocessing

// AttributeCategory determines the single best-matching subcategory for one
// row: among the given rank[<category>] columns with a present value, the one
// with the minimum rank wins, ties resolved by column order. ok is false when
// no rank column has a value on this row.
func AttributeCategory(t *Table, row int, rankColumns []string) (string, bool) {
	var best float64
	var bestCol string
	var found bool
	for _, col := range rankColumns {
		v, ok := t.Cell(row, col).AsNumber()
		if !ok {
			continue
		}
		if !found || v < best {
			best = v
			bestCol = col
			found = true
		}
	}
	if !found {
		return "", false
	}
	return RankCategory(bestCol), true
}

// FilterCategory returns a new table keeping only rows attributed to the
// given category. Rows with no rank data never match.
func FilterCategory(t *Table, category string) *Table {
	rankCols := RankColumns(t)
	out := NewTable(t.Columns...)
	for i := range t.Rows {
		got, ok := AttributeCategory(t, i, rankCols)
		if ok && got == category {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}
