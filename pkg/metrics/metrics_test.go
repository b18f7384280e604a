package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	r := New()
	r.Counter(WithLabels("answer_requests_total", "outcome", "ok"), "Requests by outcome").Add(3)
	r.Counter(WithLabels("answer_requests_total", "outcome", "error"), "").Inc()
	r.Gauge("sync_last_success_timestamp", "Last sync epoch").Set(1700000000)
	h := r.Histogram("answer_duration_seconds", "Latency", []float64{0.1, 1})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5)

	out := r.Render()

	for _, want := range []string{
		"# TYPE answer_requests_total counter",
		`answer_requests_total{outcome="error"} 1`,
		`answer_requests_total{outcome="ok"} 3`,
		"sync_last_success_timestamp 1700000000",
		`answer_duration_seconds_bucket{le="0.1"} 1`,
		`answer_duration_seconds_bucket{le="1"} 2`,
		`answer_duration_seconds_bucket{le="+Inf"} 3`,
		"answer_duration_seconds_count 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
}

func TestCounterIdentity(t *testing.T) {
	r := New()
	a := r.Counter("x_total", "")
	b := r.Counter("x_total", "")
	if a != b {
		t.Fatal("same name returned different counters")
	}
	a.Inc()
	if b.Value() != 1 {
		t.Errorf("value = %d, want 1", b.Value())
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("up_total", "").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "up_total 1") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
