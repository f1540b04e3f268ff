package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthEvent(t *testing.T) {
	m := New()

	m.AuthEvent(EventLogin, OutcomeSuccess)
	m.AuthEvent(EventLogin, OutcomeSuccess)
	m.AuthEvent(EventLogin, OutcomeFailure)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authEvents.WithLabelValues(EventLogin, OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authEvents.WithLabelValues(EventLogin, OutcomeFailure)))
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/blog/:slug", http.StatusOK, 0.01)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, 0.01)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/blog/:slug", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.AuthEvent(EventRegister, OutcomeSuccess)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `website_auth_events_total{event="register",outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
