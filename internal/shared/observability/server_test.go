package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		status string
		code   int
	}{
		{"up", "up", http.StatusOK},
		{"degraded", "degraded", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer("", HealthFunc(func(context.Context) HealthStatus {
				return HealthStatus{Status: tt.status, Components: map[string]string{"parser": "ok"}}
			}))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			var got HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, "ok", got.Components["parser"])
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	FindingsTotal.WithLabelValues("isset").Inc()

	rec := httptest.NewRecorder()
	NewServer("", nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `coalesce_findings_total{pattern="isset"}`)
}

func TestServerStartStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", nil)
	require.NoError(t, srv.Start(t.Context()))

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `"status":"up"`))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
}

func TestSetupTracingRequiresEndpoint(t *testing.T) {
	_, err := SetupTracing(t.Context(), TracingConfig{})
	assert.Error(t, err)
}
