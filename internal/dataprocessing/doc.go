// Package dataprocessing implements the merge-enrich-aggregate pipeline for
// Keepa product-tracking exports.
//
// Each xlsx export carries one data sheet whose name is the product's ASIN
// (plus an optional "note" sheet). The pipeline extracts that sheet, enriches
// the table with the ASIN, a sale-period label per dated row, and derived
// price/rank columns, concatenates all files into one table holding the union
// of their columns, and aggregates per (ASIN, sale label) participation
// statistics using a 5% discount threshold.
//
// Failures are isolated per file: a file that cannot be opened or has no data
// sheet is skipped with a recorded reason, and the run continues.
package dataprocessing
