package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracepay/internal/core"
	"tracepay/internal/sheets"
)

func TestExporterKeepsExports(t *testing.T) {
	e := New()
	stats := []core.RegionalStat{
		{Region: "Gauteng", TotalUsers: 4, TotalLeaks: 6, AverageHealthScore: 55.556, TopLeakType: "bank_fees"},
	}
	rows, err := e.ExportRegional(context.Background(), sheets.RegionalExport{
		ExportedAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		Stats:      stats,
		Summary:    core.SummarizeRegions(stats),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	require.Len(t, e.Exports(), 1)

	last := e.LastRows()
	assert.Equal(t, "Region", last[0][0])
	assert.Equal(t, []any{"Gauteng", 4, 6, 55.56, "bank_fees", 1.5}, last[1])
	assert.Equal(t, "Total (2025-06-01T08:00:00Z)", last[2][0])
}

func TestExporterHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().ExportRegional(ctx, sheets.RegionalExport{})
	assert.ErrorIs(t, err, context.Canceled)
}
