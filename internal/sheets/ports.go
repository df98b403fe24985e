package sheets

import (
	"context"
	"math"
	"time"

	"tracepay/internal/core"
)

// RegionalExport is one snapshot of regional stats to publish.
type RegionalExport struct {
	ExportedAt time.Time
	Stats      []core.RegionalStat
	Summary    core.RegionSummary
	// FromCache is true when Stats came from the cache gate rather than a
	// fresh backend read.
	FromCache bool
}

// Ports for outbound adapters.
type (
	// RegionalExporter writes a regional stats snapshot and reports how many
	// rows it wrote.
	RegionalExporter interface {
		ExportRegional(ctx context.Context, export RegionalExport) (rows int, err error)
	}
)

// Header is the first row written by exporters.
var Header = []string{"Region", "Users", "Leaks", "Avg health score", "Top leak type", "Leaks per user"}

// Rows renders export as a header, one row per region and a totals row.
func Rows(export RegionalExport) [][]any {
	rows := make([][]any, 0, len(export.Stats)+2)
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	rows = append(rows, header)
	for _, s := range export.Stats {
		rows = append(rows, []any{s.Region, s.TotalUsers, s.TotalLeaks, round2(s.AverageHealthScore), s.TopLeakType, perUser(s.TotalLeaks, s.TotalUsers)})
	}
	sum := export.Summary
	rows = append(rows, []any{
		"Total (" + export.ExportedAt.UTC().Format(time.RFC3339) + ")",
		sum.TotalUsers,
		sum.TotalLeaks,
		round2(sum.WeightedHealth),
		"worst: " + sum.WorstRegion,
		perUser(sum.TotalLeaks, sum.TotalUsers),
	})
	return rows
}

func perUser(leaks, users int) float64 {
	if users == 0 {
		return 0
	}
	return round2(float64(leaks) / float64(users))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
