// Package exporter serializes merged tables and participation summaries to
// UTF-8 CSV with a byte-order mark, so spreadsheet tools open the Japanese
// column names correctly.
package exporter
