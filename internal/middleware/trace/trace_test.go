package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "tracepay/internal/log"
)

type observed struct {
	method, route string
	status        int
}

func newTestMiddleware(buf *bytes.Buffer, got *[]observed) *Middleware {
	logger := applog.New(applog.Config{Format: applog.FormatJSON, Output: buf})
	return NewMiddleware(logger, func(*http.Request) string { return "198.51.100.4" },
		func(method, route string, status int, _ time.Duration) {
			*got = append(*got, observed{method, route, status})
		})
}

func TestMiddlewareTagsRequests(t *testing.T) {
	var buf bytes.Buffer
	var got []observed
	m := newTestMiddleware(&buf, &got)

	mux := http.NewServeMux()
	var seenID string
	mux.HandleFunc("GET /api/logos/{kind}", func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		applog.FromContext(r.Context()).InfoContext(r.Context(), "inside handler")
		w.WriteHeader(http.StatusNotFound)
	})
	h := m.Middleware(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logos/bank?name=FNB", nil))

	require.NotEmpty(t, seenID)
	assert.True(t, strings.HasPrefix(seenID, "req_"))
	assert.Equal(t, seenID, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, []observed{{http.MethodGet, "GET /api/logos/{kind}", http.StatusNotFound}}, got)
	assert.EqualValues(t, 1, m.Total())

	out := buf.String()
	assert.Contains(t, out, `"msg":"inside handler"`)
	assert.Contains(t, out, `"request_id":"`+seenID+`"`)
	assert.Contains(t, out, `"msg":"HTTP request completed"`)
	assert.Contains(t, out, `"client_ip":"198.51.100.4"`)
}

func TestMiddlewareReusesValidCallerID(t *testing.T) {
	var buf bytes.Buffer
	var got []observed
	h := newTestMiddleware(&buf, &got).Middleware(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set(HeaderRequestID, "abc-123_X")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123_X", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "unmatched", got[0].route)

	req.Header.Set(HeaderRequestID, "bad id\nwith newline")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "bad id\nwith newline", rec.Header().Get(HeaderRequestID))
}

func TestValidRequestID(t *testing.T) {
	assert.True(t, validRequestID("req_0123abcd"))
	assert.False(t, validRequestID(""))
	assert.False(t, validRequestID(strings.Repeat("a", 65)))
	assert.False(t, validRequestID("a b"))
}
