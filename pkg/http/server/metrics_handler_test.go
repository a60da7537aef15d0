package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	http_server "github.com/buildbarn/bb-bfs/pkg/http/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandler(t *testing.T) {
	handler := http_server.NewMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Teapot", http.StatusTeapot)
	}), "TestMetricsHandler")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, w.Code)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() != "buildbarn_http_handler_requests_duration_seconds" {
			continue
		}
		for _, metric := range family.Metric {
			labels := map[string]string{}
			for _, label := range metric.Label {
				labels[label.GetName()] = label.GetValue()
			}
			if labels["name"] == "TestMetricsHandler" && labels["code"] == "418" && labels["method"] == "get" {
				require.Equal(t, uint64(1), metric.GetHistogram().GetSampleCount())
				found = true
			}
		}
	}
	require.True(t, found)
}
