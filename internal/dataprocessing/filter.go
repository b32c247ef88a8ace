package dataprocessing

import (
	"fmt"
	"time"

	"keepacli/internal/errors"
)

// FilterDateRange returns a new table restricted to rows whose value in
// dateColumn falls within [start, end], inclusive on both ends and compared
// on the calendar date only. Rows with a missing or uncoerced date are
// excluded while the filter is active. A start after end is a user input
// error, reported without filtering anything.
func FilterDateRange(t *Table, dateColumn string, start, end time.Time) (*Table, error) {
	if start.After(end) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("start date %s is after end date %s",
				start.Format("2006-01-02"), end.Format("2006-01-02")), nil)
	}

	idx := t.ColumnIndex(dateColumn)
	if idx < 0 {
		return nil, errors.NewValidationError(
			fmt.Sprintf("date column %q not present in merged data", dateColumn), nil)
	}

	startDay := dateOnly(start)
	endDay := dateOnly(end)

	out := NewTable(t.Columns...)
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		d, ok := row[idx].AsDate()
		if !ok {
			continue
		}
		day := dateOnly(d)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// DateBounds reports the minimum and maximum coerced dates in dateColumn,
// for seeding default filter bounds. ok is false when no row has a date.
func DateBounds(t *Table, dateColumn string) (min, max time.Time, ok bool) {
	idx := t.ColumnIndex(dateColumn)
	if idx < 0 {
		return time.Time{}, time.Time{}, false
	}
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		d, has := row[idx].AsDate()
		if !has {
			continue
		}
		if !ok || d.Before(min) {
			min = d
		}
		if !ok || d.After(max) {
			max = d
		}
		ok = true
	}
	return min, max, ok
}
