package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesPipelineMetrics(t *testing.T) {
	m := New()
	m.FramesBuilt.Set(4)
	m.ObservePipeline(150*time.Millisecond, map[string]int{"cases": 3, "income_series": 2})
	m.HTTPRequests.WithLabelValues("/healthz", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`polio_dashboard_table_rows{table="cases"} 3`,
		// A pipeline run leaves the frame count to the chart build.
		`polio_dashboard_map_frames 4`,
		`polio_dashboard_http_requests_total{code="200",route="/healthz"} 1`,
		`polio_dashboard_pipeline_duration_seconds_count 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNewIsIndependent(t *testing.T) {
	// Separate registries must not collide on registration.
	New()
	New()
}
