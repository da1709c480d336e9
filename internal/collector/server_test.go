package collector

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/errbeacon/errbeacon/internal/payload"
)

func newTestServer(t *testing.T, development bool) (*Server, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	s, err := NewServer(Config{
		Development: development,
		Out:         out,
		Registry:    prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return s, out
}

func TestReceiveValidPayload(t *testing.T) {
	t.Parallel()

	s, out := newTestServer(t, true)
	body := `{"type":"error","timestamp":1000,"message":"boom","filename":"app.go","lineno":10,"colno":3}`
	req := httptest.NewRequest(http.MethodPost, DefaultPath, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String(), "success answer is empty")
	assert.Contains(t, out.String(), "boom")
	assert.Contains(t, out.String(), "app.go:10:3")
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.received.WithLabelValues("error")))
}

func TestReceiveMalformedBody(t *testing.T) {
	t.Parallel()

	s, out := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodPost, DefaultPath, strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	// Reported locally, never propagated: the sender still gets the empty OK.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, out.String())
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.malformed))
}

func TestReceiveInvalidPayloadCountsMalformed(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodPost, DefaultPath, strings.NewReader(`{"type":"warning"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.malformed))
}

func TestNonDevelopmentGetsNotFound(t *testing.T) {
	t.Parallel()

	s, out := newTestServer(t, false)
	body := `{"type":"error","timestamp":1,"message":"boom"}`
	req := httptest.NewRequest(http.MethodPost, DefaultPath, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, out.String())
}

func TestWrongMethodGetsNotFound(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodGet, DefaultPath, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRenderConsolePayload(t *testing.T) {
	t.Parallel()

	got := Render(payload.ErrorPayload{
		Type:      payload.KindConsoleError,
		Timestamp: 1000,
		Message:   "query failed",
		Args:      []any{"query failed", map[string]any{"table": "users"}},
	})
	assert.Contains(t, got, "console error")
	assert.Contains(t, got, "query failed")
	assert.Contains(t, got, `"table": "users"`)
}
