package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/todoapi/internal/metrics"
)

func TestObserve(t *testing.T) {
	m := metrics.New()
	m.ObserveRequest("GET /api/todos", http.StatusOK, 5*time.Millisecond)
	m.ObserveRequest("GET /api/todos", http.StatusOK, 5*time.Millisecond)
	m.ObserveOperation("create", "ok")

	n, err := testutil.GatherAndCount(m.Registry(), "todoapi_http_requests_total", "todoapi_todo_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.ObserveOperation("toggle", "not_found")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `todoapi_todo_operations_total{op="toggle",result="not_found"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
