package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Body(map[string]string{"asset": "assets/capitec_logo.png"}).
		Write(rec)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Test"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"asset":"assets/capitec_logo.png"}`, rec.Body.String())
}

func TestJSONResponseBuilderCached(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Cached([]int{1, 2}, true, 90*time.Second+500*time.Millisecond).Write(rec)

	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "90", rec.Header().Get("Age"))
	assert.JSONEq(t, `{"data":[1,2],"cache":{"from_cache":true,"age_ms":90500}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewJSONResponse().Cached("x", false, 0).Write(rec)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Empty(t, rec.Header().Get("Age"))
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		b    *JSONResponseBuilder
		code int
	}{
		{BadRequestError("bad"), http.StatusBadRequest},
		{NotFoundError("bad"), http.StatusNotFound},
		{InternalServerError("bad"), http.StatusInternalServerError},
		{ServiceUnavailableError("bad"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		tt.b.Write(rec)
		assert.Equal(t, tt.code, rec.Code)
		assert.JSONEq(t, `{"detail":"bad"}`, rec.Body.String())
	}
}

func TestEmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestUnencodableBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Body(map[string]any{"f": func() {}}).Write(rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
