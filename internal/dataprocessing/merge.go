package dataprocessing

// Merge concatenates enriched tables into one. Rows keep input order, both
// across tables and within each table. The merged column set is the union of
// all inputs' columns in first-seen order; a table missing a column
// contributes empty cells for it. No value coercion happens here.
func Merge(tables []*Table) *Table {
	merged := NewTable()
	seen := make(map[string]int)

	for _, t := range tables {
		for _, col := range t.Columns {
			if _, ok := seen[col]; !ok {
				seen[col] = len(merged.Columns)
				merged.Columns = append(merged.Columns, col)
			}
		}
	}

	for _, t := range tables {
		for _, row := range t.Rows {
			out := make([]Cell, len(merged.Columns))
			for i, col := range t.Columns {
				if i < len(row) {
					out[seen[col]] = row[i]
				}
			}
			merged.Rows = append(merged.Rows, out)
		}
	}
	return merged
}
