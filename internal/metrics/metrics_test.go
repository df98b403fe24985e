package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheObserver(t *testing.T) {
	m := New()
	m.CacheHit("admin_overview")
	m.CacheHit("admin_overview")
	m.CacheMiss("admin_overview")
	m.CacheStore("admin_overview", nil)
	m.CacheStore("admin_overview", errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("admin_overview", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("admin_overview", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheStores.WithLabelValues("admin_overview", "error")))
}

func TestLogoAndWorkerCounters(t *testing.T) {
	m := New()
	m.LogoLookup("bank", true)
	m.LogoLookup("bank", false)
	m.Invalidation(nil, false)
	m.Invalidation(nil, true)
	m.RegionalExported(9)
	m.SecurityEvent("rate_limited")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.logoLookups.WithLabelValues("bank", "match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidations.WithLabelValues("rejected")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.regionalExported))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.securityEvents.WithLabelValues("rate_limited")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "GET /api/logos/{kind}", http.StatusOK, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tracepay_http_requests_total{code="200",method="GET",route="GET /api/logos/{kind}"} 1`)
	assert.Contains(t, string(body), "tracepay_http_request_duration_seconds_bucket")
}
