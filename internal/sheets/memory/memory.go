package memory

import (
	"context"
	"sync"

	"tracepay/internal/sheets"
)

// Exporter keeps every export in memory. It backs local runs without a
// spreadsheet and tests.
type Exporter struct {
	mu      sync.Mutex
	exports []sheets.RegionalExport
	rows    [][]any
}

var _ sheets.RegionalExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportRegional(ctx context.Context, export sheets.RegionalExport) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rows := sheets.Rows(export)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exports = append(e.exports, export)
	e.rows = rows
	return len(rows), nil
}

// Exports returns every export received so far.
func (e *Exporter) Exports() []sheets.RegionalExport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sheets.RegionalExport(nil), e.exports...)
}

// LastRows returns the rows of the most recent export.
func (e *Exporter) LastRows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows
}
