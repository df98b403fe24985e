package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tracepay/internal/cache"
	"tracepay/internal/core"
	"tracepay/internal/sheets"
)

// RegionalSource yields the regional stats to export. admin.Service
// satisfies it.
type RegionalSource interface {
	Regional(ctx context.Context, force bool) (cache.Result[[]core.RegionalStat], error)
}

// ExportWorker periodically copies regional stats to a spreadsheet.
type ExportWorker struct {
	source   RegionalSource
	exporter sheets.RegionalExporter
	interval time.Duration
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewExportWorker(source RegionalSource, exporter sheets.RegionalExporter, interval time.Duration, recorder Recorder, logger *slog.Logger) *ExportWorker {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportWorker{
		source:   source,
		exporter: exporter,
		interval: interval,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// ExportOnce reads regional stats through the cache gate and writes them.
func (w *ExportWorker) ExportOnce(ctx context.Context) error {
	res, err := w.source.Regional(ctx, false)
	if err != nil {
		return fmt.Errorf("load regional stats: %w", err)
	}
	stats := append([]core.RegionalStat(nil), res.Data...)
	core.SortRegions(stats)

	rows, err := w.exporter.ExportRegional(ctx, sheets.RegionalExport{
		ExportedAt: w.now(),
		Stats:      stats,
		Summary:    core.SummarizeRegions(stats),
		FromCache:  res.FromCache,
	})
	if err != nil {
		return fmt.Errorf("export regional stats: %w", err)
	}
	w.recorder.RegionalExported(rows)
	w.logger.InfoContext(ctx, "Exported regional stats",
		"component", "worker",
		"rows", rows,
		"from_cache", res.FromCache)
	return nil
}

// Run exports immediately and then on every interval until ctx is done.
// Failed exports are logged and retried on the next tick.
func (w *ExportWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("invalid export interval %v", w.interval)
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.ExportOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Regional export failed", "component", "worker", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
