// Package http provides the chi HTTP handlers wrapping the merge pipeline:
// multipart upload-and-merge, run report, participation summary, preview,
// and BOM CSV downloads.
package http
