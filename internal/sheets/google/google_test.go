package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tracepay/internal/core"
	ports "tracepay/internal/sheets"
)

type recordedCall struct {
	method string
	path   string
	body   map[string]any
}

func newFakeSheets(t *testing.T, status int) (*gsheet.Service, *[]recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, recordedCall{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return svc, &calls
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")

	_, err = New(context.Background(), Options{SpreadsheetID: "id", CredentialsFile: "/nonexistent/sa.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestYearPrefixedName(t *testing.T) {
	cases := []struct {
		base string
		year int
		want string
	}{
		{"Regional", 2025, "2025 Regional"},
		{"2024 Regional", 2025, "2024 Regional"},
		{"  Regional  ", 2026, "2026 Regional"},
		{"", 2025, ""},
		{"12345", 2025, "2025 12345"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, yearPrefixedName(tc.base, tc.year), tc.base)
	}
}

func TestExportRegional(t *testing.T) {
	svc, calls := newFakeSheets(t, http.StatusOK)
	e := NewWithService(svc, "sheet-123", "Regional")

	stats := []core.RegionalStat{
		{Region: "Eastern Cape", TotalUsers: 10, TotalLeaks: 30, AverageHealthScore: 41},
		{Region: "Gauteng", TotalUsers: 20, TotalLeaks: 10, AverageHealthScore: 63},
	}
	rows, err := e.ExportRegional(context.Background(), ports.RegionalExport{
		ExportedAt: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
		Stats:      stats,
		Summary:    core.SummarizeRegions(stats),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rows)

	require.Len(t, *calls, 2)
	clearCall, updateCall := (*calls)[0], (*calls)[1]
	assert.Equal(t, http.MethodPost, clearCall.method)
	assert.True(t, strings.HasSuffix(clearCall.path, ":clear"), clearCall.path)
	assert.Contains(t, clearCall.path, "sheet-123")
	assert.Equal(t, http.MethodPut, updateCall.method)
	assert.Contains(t, updateCall.path, "2025 Regional!A1:F4")

	values, ok := updateCall.body["values"].([]any)
	require.True(t, ok)
	require.Len(t, values, 4)
	assert.Equal(t, "Eastern Cape", values[1].([]any)[0])
}

func TestExportRegional_APIError(t *testing.T) {
	svc, _ := newFakeSheets(t, http.StatusForbidden)
	e := NewWithService(svc, "sheet-123", "")

	_, err := e.ExportRegional(context.Background(), ports.RegionalExport{ExportedAt: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear")
}

func TestExportRegional_NoService(t *testing.T) {
	_, err := (&Exporter{}).ExportRegional(context.Background(), ports.RegionalExport{})
	assert.EqualError(t, err, "sheets service not initialized")
}
