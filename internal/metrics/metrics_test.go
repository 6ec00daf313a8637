package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveClassify(time.Now(), 3)
	IncCache("hit")
	IncCache("miss")
	IncReload(true)
	IncReload(false)
	SetArtifactSize(3, 40, 71)
	IncHTTP("/v1/icon/choose", 200)

	body := scrape(t)
	for _, want := range []string{
		"iconclass_classify_duration_seconds_bucket",
		"iconclass_classify_results_count",
		`iconclass_cache_requests_total{result="hit"}`,
		`iconclass_cache_requests_total{result="miss"}`,
		`iconclass_reloads_total{outcome="success"}`,
		`iconclass_reloads_total{outcome="failure"}`,
		`iconclass_artifact_size{table="vocabulary"} 40`,
		`iconclass_http_requests_total{code="200",route="/v1/icon/choose"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestRegistrationIsIdempotent(t *testing.T) {
	// Every helper registers lazily; calling them repeatedly must not panic
	// with a duplicate registration.
	for i := 0; i < 3; i++ {
		ensureRegistered()
		_ = Handler()
	}
}
