package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessorProcess(t *testing.T) {
	dir := t.TempDir()
	pathA := writeExport(t, dir, "keepa-B00AAAA111.xlsx", "B00AAAA111", [][]string{
		{"日付", "Amazon価格(円)", "セール価格(円)", "rank[Toys]"},
		{"2023-11-24", "2000", "1600", "300"},
		{"2023-11-25", "2000", "1600", "280"},
	})
	pathB := writeExport(t, dir, "keepa-B00BBBB222.xlsx", "B00BBBB222", [][]string{
		{"日付", "Amazon価格(円)"},
		{"2024-06-28", "980"},
	})

	broken := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(broken, []byte("not a workbook"), 0o644))

	var progress [][2]int
	p := NewProcessor(nil, testCatalog())
	p.OnProgress(func(completed, total int) {
		progress = append(progress, [2]int{completed, total})
	})

	result, err := p.Process(context.Background(), []Source{
		{Name: "keepa-B00AAAA111.xlsx", Path: pathA},
		{Name: "broken.xlsx", Path: broken},
		{Name: "keepa-B00BBBB222.xlsx", Path: pathB},
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 3)
	assert.NoError(t, result.Files[0].Err)
	assert.Error(t, result.Files[1].Err)
	assert.NoError(t, result.Files[2].Err)
	require.Len(t, result.Skipped(), 1)
	assert.Equal(t, "broken.xlsx", result.Skipped()[0].Name)

	require.NotNil(t, result.Merged)
	assert.Equal(t, 3, result.Merged.NumRows())
	assert.Equal(t, 2, result.DistinctASINs())
	assert.Equal(t, "日付", result.DateColumn)

	assert.True(t, result.Merged.HasColumn(ColumnSalePeriod), "rows arrive enriched")
	assert.Equal(t, "ビッグセール", result.Merged.Cell(0, ColumnSalePeriod).Text)
	assert.Equal(t, "スマイルSALE", result.Merged.Cell(2, ColumnSalePeriod).Text)

	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
}

func TestProcessorAllFilesFail(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(broken, []byte("junk"), 0o644))

	p := NewProcessor(nil, nil)
	_, err := p.Process(context.Background(), []Source{{Name: "broken.xlsx", Path: broken}})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestProcessorNoSources(t *testing.T) {
	p := NewProcessor(nil, nil)
	_, err := p.Process(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestProcessorContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(nil, nil)
	_, err := p.Process(ctx, []Source{{Name: "x.xlsx", Path: "x.xlsx"}})
	assert.ErrorIs(t, err, context.Canceled)
}
