package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "/teapot", "418"))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, before+1,
		testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "/teapot", "418")))
	assert.Equal(t, float64(0), testutil.ToFloat64(requestsInFlight))
}

func TestMiddlewareDefaultsTo200(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok")) // implicit 200, no explicit WriteHeader
	}))

	before := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "/plain", "200"))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/plain", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, before+1,
		testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "/plain", "200")))
}

func TestSetLedgerBalance(t *testing.T) {
	SetLedgerBalance(120, 35)

	assert.Equal(t, float64(120), testutil.ToFloat64(ledgerBalance))
	assert.Equal(t, float64(35), testutil.ToFloat64(ledgerPending))
}
