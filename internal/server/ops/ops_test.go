package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	m := metrics.New()

	ok := NewServer(":0", fakePinger{}, m.Registry, logging.Nop())
	rec := get(t, ok.Router(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := NewServer(":0", fakePinger{err: errors.New("connection refused")}, m.Registry, logging.Nop())
	rec = get(t, down.Router(), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.SessionEvent(metrics.SessionIssued)

	s := NewServer(":0", fakePinger{}, m.Registry, logging.Nop())
	rec := get(t, s.Router(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `authkeeper_auth_session_events_total{event="issued"} 1`))
}

func TestUnknownRoute(t *testing.T) {
	s := NewServer(":0", fakePinger{}, metrics.New().Registry, logging.Nop())
	rec := get(t, s.Router(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
